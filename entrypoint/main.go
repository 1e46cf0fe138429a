package main

import (
	"text2phenotype.com/bioner/annotation"
	"text2phenotype.com/bioner/api"
	"text2phenotype.com/bioner/logger"
	"text2phenotype.com/bioner/pipeline"
	"text2phenotype.com/bioner/registry"
	"text2phenotype.com/bioner/tagger"
	"text2phenotype.com/bioner/worker"
	"flag"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"net/http"
	"os"
	"time"
)

type Config struct {
	ConfigPath    string `envconfig:"BIONER_CONFIG_PATH" required:"true"`
	RegistryPath  string `envconfig:"BIONER_REGISTRY_PATH" default:""`
	MaxWordLen    int    `envconfig:"BIONER_MAX_WORD_LEN" default:"50"`
	RestAPIActive bool   `envconfig:"BIONER_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"BIONER_REST_API_PORT" default:"10000"`
}

const pipelineStartMaxRetries = 5
const retryDelay = 5 * time.Second

func main() {
	// local runs keep their environment in a .env file
	_ = godotenv.Load()
	logger.SetupLogging()
	bionerLogger := logger.NewLogger("Main")
	fatalErrLogger := bionerLogger.Fatal().Caller()
	wrap := flag.Bool("wrap", false, "a bool")
	flag.Parse()
	if *wrap {
		logger.WrapProcess(os.Args[0], flag.Args()...)
		return
	}
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	//Load Pipeline
	annotatorChannel := make(chan *pipeline.Annotator)
	go func() {
		for retry := 0; retry < pipelineStartMaxRetries; retry++ {
			cfgs, err := annotation.LoadConfigurations(config.ConfigPath)
			if err != nil {
				bionerLogger.Err(err).Msg("Failed to load configurations. Retrying in 5 sec")
				time.Sleep(retryDelay)
				continue
			}
			bionerLogger.Info().Msgf("Loaded %d configurations", len(cfgs))

			reg := registry.NewTable()
			if config.RegistryPath != "" {
				if err := reg.LoadSynonyms(config.RegistryPath); err != nil {
					bionerLogger.Err(err).
						Str("registry_path", config.RegistryPath).
						Msg("Failed to load prefix registry. Retrying in 5 sec")
					time.Sleep(retryDelay)
					continue
				}
			}

			ner, mutation, err := buildTaggers(cfgs)
			if err != nil {
				bionerLogger.Err(err).Msg("Failed to create tagger clients. Retrying in 5 sec")
				time.Sleep(retryDelay)
				continue
			}

			annotator, err := pipeline.NewAnnotator(
				pipeline.GetParams(cfgs, config.MaxWordLen),
				ner, mutation, reg,
			)
			if err != nil {
				bionerLogger.Err(err).Msg("Failed to start multi-task NER pipeline. Retrying in 5 sec")
				time.Sleep(retryDelay)
				continue
			}
			bionerLogger.Info().Msg("Pipelines loaded")
			annotatorChannel <- annotator
			return
		}
		fatalErrLogger.Msg("Could not start pipelines after 5 retries, exiting")
		os.Exit(1)
	}()

	// block until pipeline loads
	annotator := <-annotatorChannel
	ppln := annotator.Pipeline()

	if config.RestAPIActive {
		go func() {
			bionerLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{
				Pipeline:  ppln,
				Annotator: annotator,
			}
			http.HandleFunc("/", apiRequest.ProcessData)
			http.HandleFunc("/pubtator", apiRequest.ProcessPubTator)
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			bionerLogger.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, nil)
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}()
	}

	bionerLogger.Info().Msg("Start BioNER Worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			bionerLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		err = rmqWorker.StartWorker()
		if err != nil {
			bionerLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(retryDelay)
		}
	}
}

// buildTaggers creates a remote tagger client per configuration. The
// multi-task configuration is required, the mutation one is optional and
// only needed when overlap resolution is enabled.
func buildTaggers(cfgs []annotation.Configuration) (ner, mutation tagger.Tagger, err error) {
	for _, cfg := range cfgs {
		remote, err := tagger.NewRemote(tagger.RemoteParams{
			Endpoint:          cfg.Params.Tagger.Endpoint,
			BatchSize:         cfg.Params.Tagger.BatchSize,
			RequestsPerSecond: cfg.Params.Tagger.RequestsPerSecond,
			MaxRetries:        cfg.Params.Tagger.MaxRetries,
			EntityTypes:       cfg.EntityTypes,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("configuration %q: %w", cfg.Name, err)
		}
		switch cfg.Pipeline {
		case annotation.MultiTaskPipeline:
			ner = remote
		case annotation.MutationPipeline:
			mutation = remote
		}
	}
	return ner, mutation, nil
}
