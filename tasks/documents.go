package tasks

import (
	"text2phenotype.com/bioner/redis"
	"text2phenotype.com/bioner/utils"
)

const DocumentsDB redis.DB = 0

type DocumentTask struct {
	FailedTasks  []string            `json:"failed_tasks"`
	FailedChunks map[string][]string `json:"failed_chunks"`
}

type DocumentTaskCached struct {
	DocInfo     map[string]interface{} `json:"document_info"`
	FailedTasks []string               `json:"failed_tasks"`
	JobID       string                 `json:"job_id"`
	WorkType    string                 `json:"work_type"`
}

type DocumentTasks struct {
	client redis.Client
}

func (tasks DocumentTasks) Get(redisKey string) (*DocumentTask, error) {
	var task DocumentTask
	err := tasks.client.GetDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks DocumentTasks) GetCached(redisKey string) (*DocumentTaskCached, error) {
	var task DocumentTaskCached
	err := tasks.client.GetDocument(cachedPropertiesKey(redisKey), &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update changes the document task and mirrors failed_tasks into the
// cached-properties twin other services read the shortcut fields from.
func (tasks DocumentTasks) Update(redisKey string, updateFunc func(task *DocumentTask)) (err error) {
	defer utils.RecoverWithError(&err)
	var task DocumentTask
	err = tasks.client.UpdateDocument(redisKey, &task, func() error {
		if task.FailedChunks == nil {
			task.FailedChunks = make(map[string][]string)
		}
		updateFunc(&task)
		return nil
	})
	if err != nil {
		return err
	}
	var cached DocumentTaskCached
	return tasks.client.UpdateDocument(cachedPropertiesKey(redisKey), &cached, func() error {
		cached.FailedTasks = task.FailedTasks
		return nil
	})
}
