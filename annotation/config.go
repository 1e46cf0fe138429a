package annotation

import (
	"text2phenotype.com/bioner/logger"
	"errors"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"os"
	"path"
	"strings"
	"sync"
)

const (
	// pipeline type
	MultiTaskPipeline = "multi_task"
	MutationPipeline  = "mutation"

	// features
	PrefixNormalization = "prefix_normalization"
	OverlapResolution   = "overlap_resolution"
)

// TaggerParams describes one remote inference endpoint.
type TaggerParams struct {
	Endpoint          string  `yaml:"endpoint" json:"endpoint"`
	BatchSize         int     `yaml:"batch_size" json:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries" json:"max_retries"`
}

type ParamsConfig struct {
	Tagger TaggerParams `yaml:"tagger" json:"tagger"`
}

type Configuration struct {
	Name        string       `json:"name"`
	FilePath    string       `json:"file_path"`
	Pipeline    string       `yaml:"pipeline" json:"pipeline"`
	EntityTypes []EntityType `yaml:"entity_types" json:"entity_types"`
	Params      ParamsConfig `yaml:"params" json:"params"`
	Features    []string     `yaml:"features" json:"features"`
}

func (cfg Configuration) CheckFeature(featureName string) bool {
	for _, feat := range cfg.Features {
		if feat == featureName {
			return true
		}
	}

	return false
}

func LoadConfigurations(dirPath string) ([]Configuration, error) {
	cfgLogger := logger.NewLogger("LoadConfigurations")

	files, err := ioutil.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.FileInfo) {
			defer wg.Done()
			cfg := Configuration{
				Name:     strings.Split(file.Name(), ".yaml")[0],
				FilePath: path.Join(dirPath, file.Name()),
			}
			buf, err := ioutil.ReadFile(cfg.FilePath)
			if err != nil {
				cfgLogger.Err(err)
				return
			}
			if err := yaml.Unmarshal(buf, &cfg); err != nil {
				cfgLogger.Err(err)
				return
			}

			// check pipeline type
			if cfg.Pipeline != MultiTaskPipeline && cfg.Pipeline != MutationPipeline {
				cfgLogger.Err(errors.New("wrong pipeline type"))
				return
			}

			configChan <- cfg
		}(f)
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]Configuration, 0, len(configChan))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	return configs, nil
}
