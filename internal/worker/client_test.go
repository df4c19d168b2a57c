package worker

import (
	"context"
	"testing"

	"salesclutch/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func TestCallProcessTaskRoundTrip(t *testing.T) {
	payload := CallProcessPayload{
		CallID:      uuid.New().String(),
		WorkspaceID: uuid.New().String(),
	}

	task, err := NewCallProcessTask(payload)
	if err != nil {
		t.Fatalf("NewCallProcessTask() error = %v", err)
	}
	if task.Type() != TaskCallProcess {
		t.Errorf("task type = %q, want %q", task.Type(), TaskCallProcess)
	}

	parsed, err := ParseCallProcessPayload(task)
	if err != nil {
		t.Fatalf("ParseCallProcessPayload() error = %v", err)
	}
	if parsed != payload {
		t.Errorf("parsed = %+v, want %+v", parsed, payload)
	}
}

func TestParseCallProcessPayloadRejectsGarbage(t *testing.T) {
	task := asynq.NewTask(TaskCallProcess, []byte("not json"))
	if _, err := ParseCallProcessPayload(task); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestClientEnqueueCallProcess(t *testing.T) {
	redis := miniredis.RunT(t)

	client, err := NewClient(&config.Config{
		RedisURL:   "redis://" + redis.Addr(),
		AsynqQueue: "calls",
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	err = client.EnqueueCallProcess(context.Background(), CallProcessPayload{
		CallID:      uuid.New().String(),
		WorkspaceID: uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("EnqueueCallProcess() error = %v", err)
	}

	// asynq stores pending tasks under asynq:{<queue>}:pending.
	if !redis.Exists("asynq:{calls}:pending") {
		t.Error("task not enqueued on the calls queue")
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(&config.Config{}); err == nil {
		t.Fatal("expected error when redis url is empty")
	}
}
