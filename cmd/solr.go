package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// solrClient talks to the Solr JSON update API. The loader only needs three
// operations: add a document, commit pending changes, and delete by query.
type solrClient struct {
	baseURL string
	client  *http.Client
}

func newSolrClient(baseURL string, client *http.Client) *solrClient {
	return &solrClient{baseURL: baseURL, client: client}
}

func (s *solrClient) add(doc map[string]any) error {
	return s.update(map[string]any{"add": map[string]any{"doc": doc}})
}

func (s *solrClient) commit() error {
	return s.update(map[string]any{"commit": map[string]any{}})
}

func (s *solrClient) deleteByQuery(query string) error {
	return s.update(map[string]any{"delete": map[string]any{"query": query}})
}

func (s *solrClient) update(payload map[string]any) error {
	url := fmt.Sprintf("%s/update", s.baseURL)
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	startTime := time.Now()
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("solr request to %s failed: %s", url, err.Error())
	}
	defer resp.Body.Close()
	respBytes, _ := io.ReadAll(resp.Body)
	elapsedMS := int64(time.Since(startTime) / time.Millisecond)

	if resp.StatusCode != http.StatusOK {
		log.Printf("ERROR: failed response from solr POST %s - %d:%s. Elapsed Time: %d (ms)",
			url, resp.StatusCode, respBytes, elapsedMS)
		return fmt.Errorf("solr update failed %d: %s", resp.StatusCode, respBytes)
	}
	return nil
}

// ping checks that the index is reachable; used by the service healthcheck
func (s *solrClient) ping() error {
	url := fmt.Sprintf("%s/admin/ping", s.baseURL)
	resp, err := s.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("solr ping failed with status %d", resp.StatusCode)
	}
	return nil
}
