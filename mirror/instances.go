package mirror

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	ythttp "ytsubs/http"
)

// instancesURL is the public directory of mirror instances.
const instancesURL = "https://api.invidious.io/instances.json"

// FetchInstances downloads the public instance directory and returns the
// URIs of instances that expose the REST API, excluding onion services.
func FetchInstances(ctx context.Context, client *ythttp.Client) ([]string, error) {
	return fetchInstancesFrom(ctx, client, instancesURL)
}

func fetchInstancesFrom(ctx context.Context, client *ythttp.Client, directoryURL string) ([]string, error) {
	if client == nil {
		client = ythttp.New(nil)
	}

	resp, err := client.Get(ctx, directoryURL)
	if err != nil {
		return nil, fmt.Errorf("fetch instances: %w", err)
	}

	// The directory is a list of [name, details] pairs.
	var entries [][2]json.RawMessage
	if err := resp.JSON(&entries); err != nil {
		return nil, fmt.Errorf("fetch instances: %w", err)
	}

	var domains []string
	for _, entry := range entries {
		var details struct {
			Type string `json:"type"`
			API  bool   `json:"api"`
			URI  string `json:"uri"`
		}
		if err := json.Unmarshal(entry[1], &details); err != nil {
			continue
		}
		if details.Type == "onion" || !details.API || details.URI == "" {
			continue
		}
		domains = append(domains, strings.TrimSuffix(details.URI, "/"))
	}

	if len(domains) == 0 {
		return nil, fmt.Errorf("fetch instances: no usable instance in directory")
	}
	return domains, nil
}

// ReadInstancesFile loads a persisted instance list, one domain per line.
func ReadInstancesFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var domains []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			domains = append(domains, line)
		}
	}
	return domains, scanner.Err()
}

// WriteInstancesFile persists the instance list, one domain per line.
func WriteInstancesFile(path string, domains []string) error {
	var sb strings.Builder
	for _, domain := range domains {
		sb.WriteString(domain)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
