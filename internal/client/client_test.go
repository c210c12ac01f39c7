package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "tpk-test", "1.2.3")
}

func TestDoSetsHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tpk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Client-Type"); got != "cli" {
			t.Errorf("X-Client-Type = %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("X-Request-ID missing")
		}
		w.Write([]byte(`{"message":"ok"}`))
	})
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
}

func TestDoErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Invalid API key"}`))
	})
	_, err := c.Me(context.Background())
	if err == nil || err.Error() != "Invalid API key" {
		t.Fatalf("Me error = %v, want server message", err)
	}
}

func TestDoErrorWithoutMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream broke"))
	})
	_, err := c.Me(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("Me error = %v, want status code", err)
	}
}

func TestDoMalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	_, err := c.Me(context.Background())
	if err == nil || !strings.Contains(err.Error(), "malformed response from server") {
		t.Fatalf("Me error = %v, want malformed-response error", err)
	}
}

func TestHealthCheckPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/health" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["package_version"] != "1.2.3" {
			t.Errorf("package_version = %q", payload["package_version"])
		}
		if payload["os"] == "" || payload["arch"] == "" {
			t.Errorf("platform fields missing: %v", payload)
		}
		w.Write([]byte(`{"message":"A new version is available"}`))
	})
	msg, err := c.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if msg != "A new version is available" {
		t.Fatalf("message = %q", msg)
	}
}

func TestHealthCheckUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "k", "dev")
	_, err := c.HealthCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "cannot reach the engine") {
		t.Fatalf("HealthCheck error = %v, want unreachable hint", err)
	}
}

func TestEmptyJobConfig(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/job/init" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"empty_tp_config":"[job]\nname = \"\"\n","message":"Edit and push"}`))
	})
	config, msg, err := c.EmptyJobConfig(context.Background())
	if err != nil {
		t.Fatalf("EmptyJobConfig: %v", err)
	}
	if !strings.HasPrefix(config, "[job]") {
		t.Errorf("config = %q", config)
	}
	if msg != "Edit and push" {
		t.Errorf("message = %q", msg)
	}
}

func TestJobPullQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/job/pull/job-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("system") == "" {
			t.Error("system query missing")
		}
		if got := q["files"]; len(got) != 2 || got[0] != "out/model.pt" || got[1] != "logs/train.log" {
			t.Errorf("files query = %v", got)
		}
		if q.Get("private_key_path") != "/home/u/.ssh/id_ed25519" {
			t.Errorf("private_key_path = %q", q.Get("private_key_path"))
		}
		w.Write([]byte(`{"download_map":{"out/model.pt":"https://signed/1"},"command":"echo decrypt","command_show_stdout":true}`))
	})
	res, err := c.JobPull(context.Background(), "job-1", []string{"out/model.pt", "logs/train.log"}, "/home/u/.ssh/id_ed25519")
	if err != nil {
		t.Fatalf("JobPull: %v", err)
	}
	if res.DownloadMap["out/model.pt"] != "https://signed/1" {
		t.Errorf("download map = %v", res.DownloadMap)
	}
	if res.Command != "echo decrypt" || !res.CommandShowStdout {
		t.Errorf("command = %q show=%v", res.Command, res.CommandShowStdout)
	}
}

func TestListOrgQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("org") != "true" {
			t.Errorf("org query = %q, want true", r.URL.Query().Get("org"))
		}
		w.Write([]byte(`{"message":"2 clusters"}`))
	})
	msg, err := c.ClusterList(context.Background(), true)
	if err != nil {
		t.Fatalf("ClusterList: %v", err)
	}
	if msg != "2 clusters" {
		t.Errorf("message = %q", msg)
	}
}

func TestEditClusterBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/cluster/edit/c-1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["tp_cluster_name"] != "trainer" {
			t.Errorf("tp_cluster_name = %v", body["tp_cluster_name"])
		}
		// Unset fields must be omitted, not nulled.
		if _, ok := body["deletion_protection"]; ok {
			t.Error("deletion_protection present, want omitted")
		}
		w.Write([]byte(`{}`))
	})
	name := "trainer"
	msg, err := c.EditCluster(context.Background(), "c-1", ClusterEdit{Name: &name})
	if err != nil {
		t.Fatalf("EditCluster: %v", err)
	}
	if msg != "Cluster edited successfully" {
		t.Errorf("message = %q, want default", msg)
	}
}
