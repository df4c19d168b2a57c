// Package worker carries call processing jobs between the API and the
// background worker over an asynq queue.
package worker

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCallProcess = "calls.process"

type CallProcessPayload struct {
	CallID      string `json:"callId"`
	WorkspaceID string `json:"workspaceId"`
}

func NewCallProcessTask(payload CallProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCallProcess, data), nil
}

func ParseCallProcessPayload(task *asynq.Task) (CallProcessPayload, error) {
	var payload CallProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CallProcessPayload{}, err
	}
	return payload, nil
}
