package ops

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/tensorpool/tp/internal/stream"
)

type jobPushPayload struct {
	TPConfig       string   `json:"tp_config"`
	PublicKeyPath  string   `json:"public_key_path"`
	PrivateKeyPath string   `json:"private_key_path"`
	PublicKeys     []string `json:"public_keys"`
	System         string   `json:"system"`
}

// JobPush submits a job described by a tp config file. The session
// runs without a spinner: push streams provisioning output and may
// run upload commands locally, so messages print live. The outcome's
// JobID is set as soon as the engine assigns one, even if the
// connection is lost later.
func (e Env) JobPush(configPath, publicKeyPath, privateKeyPath string) stream.Outcome {
	configText, err := os.ReadFile(configPath)
	if err != nil {
		return stream.Outcome{Message: fmt.Sprintf("Config file not found: %s", configPath)}
	}
	// Catch a broken config locally before the engine spins anything
	// up for it.
	var parsed map[string]any
	if err := toml.Unmarshal(configText, &parsed); err != nil {
		return stream.Outcome{Message: fmt.Sprintf("%s is not valid TOML: %v", configPath, err)}
	}

	publicKey, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return stream.Outcome{Message: fmt.Sprintf("Public key file not found: %s", publicKeyPath)}
	}
	if _, err := os.Stat(privateKeyPath); err != nil {
		return stream.Outcome{Message: fmt.Sprintf("Private key file not found: %s", privateKeyPath)}
	}

	session := &stream.Session{
		BaseURL:  e.EngineURL,
		Endpoint: "/job/push",
		APIKey:   e.APIKey,
		Payload: jobPushPayload{
			TPConfig:       string(configText),
			PublicKeyPath:  publicKeyPath,
			PrivateKeyPath: privateKeyPath,
			PublicKeys:     []string{strings.TrimSpace(string(publicKey))},
			System:         runtime.GOOS,
		},
		Defaults: stream.Defaults{
			UnexpectedEnd: "Connection lost while pushing the job.\n" +
				"The job may still be starting. Check 'tp job list' to see the current status.",
		},
		Logger: e.Logger,
	}
	return session.Run()
}

// JobListen streams a running job's output. No spinner and no input
// relay: everything the engine sends prints directly.
func (e Env) JobListen(jobID string) stream.Outcome {
	if jobID == "" {
		return stream.Outcome{Message: "Job ID is required"}
	}
	session := &stream.Session{
		BaseURL:  e.EngineURL,
		Endpoint: "/job/listen/" + jobID,
		APIKey:   e.APIKey,
		Defaults: stream.Defaults{
			Success: "Job listening completed",
			Error:   "Job listening failed",
			UnexpectedEnd: "Connection lost while listening to job.\n" +
				fmt.Sprintf("Check 'tp job info %s' to see the current status.", jobID),
		},
		Logger: e.Logger,
	}
	return session.Run()
}

// JobCancel stops a job over a streaming session.
func (e Env) JobCancel(jobID string) stream.Outcome {
	if jobID == "" {
		return stream.Outcome{Message: "Job ID is required"}
	}
	return e.runWithSpinner("Cancelling job...", e.endpoint("/job/cancel/"+jobID), nil, stream.Defaults{
		Success: fmt.Sprintf("Job %s cancelled successfully", jobID),
		Error:   "Job cancellation failed",
		UnexpectedEnd: "Connection lost during job cancellation.\n" +
			"The job may still be cancelling. Check 'tp job list' to see the current status.",
	})
}
