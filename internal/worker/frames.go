// ABOUTME: Line-delimited JSON frames exchanged with the embedding worker
// ABOUTME: Encodes commands and decodes bare or enveloped responses in order
package worker

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/harper/facultymatch/internal/models"
)

const (
	commandEmbed    = "embed"
	commandPreload  = "preload"
	commandShutdown = "shutdown"

	envelopeResult = "result"
	envelopeError  = "error"
)

type embedCommand struct {
	Type            string                 `json:"type"`
	RequestID       string                 `json:"requestId"`
	Model           string                 `json:"model"`
	Texts           []models.EmbeddingItem `json:"texts"`
	ItemLabel       string                 `json:"itemLabel"`
	ItemLabelPlural string                 `json:"itemLabelPlural"`
}

type preloadCommand struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	Model     string `json:"model"`
}

type shutdownCommand struct {
	Type string `json:"type"`
}

// envelope is the canonical response shape. Bare batches are accepted for
// workers that predate it.
type envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type frameKind int

const (
	frameResult frameKind = iota
	frameError
)

// frame is one decoded stdout record.
type frame struct {
	kind      frameKind
	requestID string
	batch     *models.EmbeddingBatch
	message   string
}

func encodeCommand(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode worker command: %w", err)
	}
	return append(data, '\n'), nil
}

// decodeFrame tries the bare batch shape first, then the typed envelope.
func decodeFrame(line []byte) (frame, error) {
	line = bytes.TrimSpace(line)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return frame{}, err
	}

	if batch, ok := decodeBare(line, fields); ok {
		return frame{kind: frameResult, batch: batch}, nil
	}

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return frame{}, err
	}

	switch env.Type {
	case envelopeResult:
		batch := &models.EmbeddingBatch{}
		if len(env.Payload) > 0 && string(env.Payload) != "null" {
			if err := json.Unmarshal(env.Payload, batch); err != nil {
				return frame{}, fmt.Errorf("invalid result payload: %w", err)
			}
		}
		return frame{kind: frameResult, requestID: env.RequestID, batch: batch}, nil
	case envelopeError:
		msg := env.Message
		if msg == "" {
			msg = "The embedding worker reported an error without a message."
		}
		return frame{kind: frameError, requestID: env.RequestID, message: msg}, nil
	case "":
		return frame{}, fmt.Errorf("response is neither an embedding batch nor a typed envelope")
	default:
		return frame{}, fmt.Errorf("unknown response type %q", env.Type)
	}
}

func decodeBare(line []byte, fields map[string]json.RawMessage) (*models.EmbeddingBatch, bool) {
	if _, typed := fields["type"]; typed {
		return nil, false
	}
	for _, key := range []string{"model", "dimension", "rows"} {
		if _, ok := fields[key]; !ok {
			return nil, false
		}
	}
	var batch models.EmbeddingBatch
	if err := json.Unmarshal(line, &batch); err != nil {
		return nil, false
	}
	return &batch, true
}

// sanitizeBatch drops rows whose vector is empty or disagrees with the
// reported dimension. The dropped ids surface as missing to callers.
func sanitizeBatch(batch *models.EmbeddingBatch) int {
	if batch == nil {
		return 0
	}
	kept := batch.Rows[:0]
	dropped := 0
	for _, row := range batch.Rows {
		if models.ValidateVector(row.Embedding, batch.Dimension) != nil {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	batch.Rows = kept
	return dropped
}

func truncateRaw(line []byte, limit int) string {
	s := string(bytes.TrimSpace(line))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
