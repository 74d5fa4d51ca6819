package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"tooldeck/model"
)

// ListModels returns the models known to the backend's Ollama instance.
func (c *Client) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	var resp struct {
		Models []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/models/ollama", &resp); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]model.ModelInfo, len(resp.Models))
	for i, m := range resp.Models {
		models[i] = model.ModelInfo{Name: m.Name, Size: m.Size, Provider: "ollama"}
	}
	return models, nil
}

// PullModel asks the backend to pull a model, reporting progress through the
// callback for each NDJSON status line. A nil progress callback discards
// updates.
func (c *Client) PullModel(ctx context.Context, name string, progress func(model.PullProgress)) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/models/ollama/pull", map[string]string{"name": name})
	if err != nil {
		return err
	}

	resp, err := c.streaming.Do(req)
	if err != nil {
		return fmt.Errorf("pull request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var update struct {
			Status    string `json:"status"`
			Total     int64  `json:"total"`
			Completed int64  `json:"completed"`
			Error     string `json:"error"`
		}
		if err := json.Unmarshal(line, &update); err != nil {
			if c.logger != nil {
				c.logger.Printf("backend: skipping malformed pull progress line: %v", err)
			}
			continue
		}
		if update.Error != "" {
			return fmt.Errorf("model pull failed: %s", update.Error)
		}
		if progress != nil {
			progress(model.PullProgress{
				Status:    update.Status,
				Total:     update.Total,
				Completed: update.Completed,
			})
		}
	}
	return scanner.Err()
}
