package connector

import (
	"encoding/json"
	"fmt"
)

// TaskKind names the model task that produced an output payload.
type TaskKind string

const (
	TaskUnspecified          TaskKind = "TASK_UNSPECIFIED"
	TaskClassification       TaskKind = "TASK_CLASSIFICATION"
	TaskDetection            TaskKind = "TASK_DETECTION"
	TaskKeypoint             TaskKind = "TASK_KEYPOINT"
	TaskOcr                  TaskKind = "TASK_OCR"
	TaskInstanceSegmentation TaskKind = "TASK_INSTANCE_SEGMENTATION"
	TaskSemanticSegmentation TaskKind = "TASK_SEMANTIC_SEGMENTATION"
	TaskTextToImage          TaskKind = "TASK_TEXT_TO_IMAGE"
	TaskTextGeneration       TaskKind = "TASK_TEXT_GENERATION"
)

type WriteRequest struct {
	SyncMode             string                `json:"sync_mode"`
	DestinationSyncMode  string                `json:"destination_sync_mode"`
	Pipeline             string                `json:"pipeline"`
	Recipe               *Recipe               `json:"recipe,omitempty"`
	DataMappingIndices   []string              `json:"data_mapping_indices"`
	ModelInstanceOutputs []ModelInstanceOutput `json:"model_instance_outputs"`
}

const (
	SyncModeAsync = "async"
	SyncModeSync  = "sync"
)

type Recipe struct {
	Source         string   `json:"source"`
	ModelInstances []string `json:"model_instances"`
	Destination    string   `json:"destination"`
}

type ModelInstanceOutput struct {
	ModelInstance string       `json:"model_instance"`
	Task          TaskKind     `json:"task"`
	TaskOutputs   []TaskOutput `json:"task_outputs"`
}

// TaskOutput is a tagged union: exactly one payload field is set, keyed by the
// task kind that produced it.
type TaskOutput struct {
	Index string `json:"index"`

	Classification       json.RawMessage `json:"classification,omitempty"`
	Detection            json.RawMessage `json:"detection,omitempty"`
	Keypoint             json.RawMessage `json:"keypoint,omitempty"`
	Ocr                  json.RawMessage `json:"ocr,omitempty"`
	InstanceSegmentation json.RawMessage `json:"instance_segmentation,omitempty"`
	SemanticSegmentation json.RawMessage `json:"semantic_segmentation,omitempty"`
	TextToImage          json.RawMessage `json:"text_to_image,omitempty"`
	TextGeneration       json.RawMessage `json:"text_generation,omitempty"`
	Unspecified          json.RawMessage `json:"unspecified,omitempty"`
}

// Payload returns the task kind and payload carried by the output. Errors when
// no payload or more than one payload is set.
func (o *TaskOutput) Payload() (TaskKind, json.RawMessage, error) {
	var (
		kind    TaskKind
		payload json.RawMessage
		count   int
	)

	take := func(k TaskKind, p json.RawMessage) {
		if len(p) > 0 {
			kind = k
			payload = p
			count++
		}
	}

	take(TaskClassification, o.Classification)
	take(TaskDetection, o.Detection)
	take(TaskKeypoint, o.Keypoint)
	take(TaskOcr, o.Ocr)
	take(TaskInstanceSegmentation, o.InstanceSegmentation)
	take(TaskSemanticSegmentation, o.SemanticSegmentation)
	take(TaskTextToImage, o.TextToImage)
	take(TaskTextGeneration, o.TextGeneration)
	take(TaskUnspecified, o.Unspecified)

	switch count {
	case 0:
		return "", nil, fmt.Errorf("task output %q carries no payload", o.Index)
	case 1:
		return kind, payload, nil
	default:
		return "", nil, fmt.Errorf("task output %q carries %d payloads, expected exactly one", o.Index, count)
	}
}

// Validate checks the structural invariants of a write request: every output
// carries exactly one payload, and the payload kind agrees with the declared
// task of its model instance.
func (r *WriteRequest) Validate() error {
	if len(r.ModelInstanceOutputs) == 0 {
		return fmt.Errorf("model_instance_outputs is required")
	}

	for _, mio := range r.ModelInstanceOutputs {
		for i := range mio.TaskOutputs {
			kind, _, err := mio.TaskOutputs[i].Payload()
			if err != nil {
				return err
			}

			if mio.Task != "" && mio.Task != TaskUnspecified && kind != mio.Task {
				return fmt.Errorf("task output %q carries a %s payload but model instance %q declares task %s",
					mio.TaskOutputs[i].Index, kind, mio.ModelInstance, mio.Task)
			}
		}
	}

	return nil
}
