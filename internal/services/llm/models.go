package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Model auto-selection: when no model is configured, pick the best locally
// available tag the machine can hold in memory.

// preferenceLadder orders model families best-first with the RAM (GiB) each
// roughly needs.
var preferenceLadder = []struct {
	prefix string
	minRAM int
}{
	{"qwen2.5:14b", 16},
	{"llama3.1:8b", 10},
	{"qwen2.5:7b", 10},
	{"mistral:7b", 10},
	{"llama3.2:3b", 6},
	{"qwen2.5:3b", 6},
	{"llama3.2:1b", 3},
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the locally available model tags.
func (s *OllamaService) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tags endpoint returned %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// SelectModel picks a model when none is configured: the best ladder entry
// that is available locally and fits in system RAM, else the first local
// model. The chosen tag is set on the service.
func (s *OllamaService) SelectModel(ctx context.Context) (string, error) {
	if s.model != "" {
		return s.model, nil
	}

	available, err := s.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if len(available) == 0 {
		return "", fmt.Errorf("no models installed in ollama")
	}

	ramGiB := totalRAMGiB()
	for _, pref := range preferenceLadder {
		if ramGiB > 0 && ramGiB < pref.minRAM {
			continue
		}
		for _, tag := range available {
			if strings.HasPrefix(tag, pref.prefix) {
				s.model = tag
				s.logger.Info().Str("model", tag).Int("ram_gib", ramGiB).Msg("Auto-selected ollama model")
				return tag, nil
			}
		}
	}

	s.model = available[0]
	s.logger.Warn().Str("model", s.model).Msg("No preferred model installed, using first available")
	return s.model, nil
}

// totalRAMGiB reads MemTotal from /proc/meminfo; 0 when unavailable.
func totalRAMGiB() int {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return int(kb / (1024 * 1024))
	}
	return 0
}
