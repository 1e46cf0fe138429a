package worker

import (
	"text2phenotype.com/bioner/tasks"
	"fmt"
)

type redisTransactions interface {
	getChunkTask(redisKey string) (*tasks.ChunkTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	getDocTask(task *Task) (*tasks.DocumentTaskCached, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	err := wrapper.tasksClient.Chunks.Update(task.redisKey, func(task *tasks.ChunkTask) {
		task.TaskStatuses.BioNER.Status = tasks.TaskStatusStarted
		task.TaskStatuses.BioNER.Attempts += 1
		task.TaskStatuses.BioNER.StartedAt = getFormattedNow()
		task.TaskStatuses.BioNER.CompletedAt = nil
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	err := wrapper.tasksClient.Chunks.Update(task.redisKey, func(chunkTask *tasks.ChunkTask) {
		chunkTask.TaskStatuses.BioNER.Status = tasks.TaskStatusCanceled
		chunkTask.TaskStatuses.BioNER.StartedAt = getFormattedNow()
		chunkTask.TaskStatuses.BioNER.CompletedAt = getFormattedNow()
		chunkTask.TaskStatuses.BioNER.Attempts += 1
		chunkTask.TaskStatuses.BioNER.ErrorMessages = append(
			chunkTask.TaskStatuses.BioNER.ErrorMessages,
			errorMessages...,
		)
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Documents.Update(task.chunkTask.DocID, func(docTask *tasks.DocumentTask) {
		docTask.FailedTasks = append(docTask.FailedTasks, "bioner")
		docTask.FailedChunks[task.redisKey] = append(docTask.FailedChunks[task.redisKey], "bioner")
	})
	if err != nil {
		return err
	}
	err = wrapper.tasksClient.Chunks.Update(task.redisKey, func(chunkTask *tasks.ChunkTask) {
		chunkTask.TaskStatuses.BioNER.Status = tasks.TaskStatusCompletedFailure
		chunkTask.TaskStatuses.BioNER.StartedAt = getFormattedNow()
		chunkTask.TaskStatuses.BioNER.CompletedAt = getFormattedNow()
		chunkTask.TaskStatuses.BioNER.Attempts += 1
		chunkTask.TaskStatuses.BioNER.ErrorMessages = append(
			chunkTask.TaskStatuses.BioNER.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				chunkTask.TaskStatuses.BioNER.Attempts,
				maxRetries,
			),
		)
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Chunks.Update(task.redisKey, func(chunkTask *tasks.ChunkTask) {
		chunkTask.TaskStatuses.BioNER.Status = tasks.TaskStatusFailed
		chunkTask.TaskStatuses.BioNER.CompletedAt = getFormattedNow()
		chunkTask.TaskStatuses.BioNER.ErrorMessages = append(chunkTask.TaskStatuses.BioNER.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Chunks.Update(task.redisKey, func(chunkTask *tasks.ChunkTask) {
		if !chunkTask.TaskStatuses.BioNER.Status.Complete() {
			chunkTask.TaskStatuses.BioNER.Status = tasks.TaskStatusCompletedSuccess
		}
		chunkTask.TaskStatuses.BioNER.CompletedAt = getFormattedNow()
		chunkTask.TaskStatuses.BioNER.ResultsFileKey = getResultsFileKey(task)
	})
}

func (wrapper *redisClientWrapper) getChunkTask(redisKey string) (*tasks.ChunkTask, error) {
	return wrapper.tasksClient.Chunks.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(task.chunkTask.JobID)
}

func (wrapper *redisClientWrapper) getDocTask(task *Task) (*tasks.DocumentTaskCached, error) {
	return wrapper.tasksClient.Documents.GetCached(task.chunkTask.DocID)
}
