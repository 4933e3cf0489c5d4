// ABOUTME: Pushes and pulls the faculty index and dataset metadata documents
// ABOUTME: Documents are stored verbatim; a manifest records what was pushed
package charm

import (
	"encoding/json"
	"fmt"
	"time"
)

// Push uploads the index and metadata documents. Nil documents are skipped.
func (c *Client) Push(index, metadata []byte) (*Manifest, error) {
	if index == nil && metadata == nil {
		return nil, fmt.Errorf("nothing to push: no embeddings or dataset metadata")
	}

	manifest := &Manifest{PushedAt: time.Now().UTC(), IndexBytes: len(index), MetadataBytes: len(metadata)}
	if index != nil {
		var summary struct {
			Model        string `json:"model"`
			EmbeddedRows int    `json:"embeddedRows"`
		}
		if err := json.Unmarshal(index, &summary); err != nil {
			return nil, fmt.Errorf("refusing to push an unreadable index: %w", err)
		}
		manifest.Model = summary.Model
		manifest.EmbeddedRows = summary.EmbeddedRows
		if err := c.Set(IndexKey, index); err != nil {
			return nil, err
		}
	}
	if metadata != nil {
		if err := c.Set(MetadataKey, metadata); err != nil {
			return nil, err
		}
	}
	if err := c.SetJSON(ManifestKey, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// PullIndex returns the remote index document, or nil when none was pushed.
func (c *Client) PullIndex() ([]byte, error) {
	return c.Get(IndexKey)
}

// PullMetadata returns the remote metadata document, or nil when none was pushed.
func (c *Client) PullMetadata() ([]byte, error) {
	return c.Get(MetadataKey)
}

// RemoteManifest returns the manifest of the last push, or nil.
func (c *Client) RemoteManifest() (*Manifest, error) {
	var m Manifest
	ok, err := c.GetJSON(ManifestKey, &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}
