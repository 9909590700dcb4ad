package cfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// Worker is a deployed Workers script.
type Worker struct {
	ID         string `json:"id"`
	Etag       string `json:"etag"`
	CreatedOn  string `json:"created_on"`
	ModifiedOn string `json:"modified_on"`
}

// WorkerDomain is a custom hostname routed to a Worker.
type WorkerDomain struct {
	ID          string `json:"id"`
	Hostname    string `json:"hostname"`
	ZoneID      string `json:"zone_id"`
	ZoneName    string `json:"zone_name"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}

// WorkerBinding attaches a resource to a deployed script. Type "r2_bucket"
// binds BucketName under Name; type "secret_text" injects Text under Name.
type WorkerBinding struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	BucketName string `json:"bucket_name,omitempty"`
	Text       string `json:"text,omitempty"`
}

func (c *Client) workersPath(parts string) string {
	return fmt.Sprintf("/accounts/%s/workers%s", c.creds.AccountID, parts)
}

// ListWorkers returns all Workers scripts in the account.
func (c *Client) ListWorkers(ctx context.Context) ([]Worker, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.workersPath("/scripts"),
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var workers []Worker
	if err := json.Unmarshal(result, &workers); err != nil {
		return nil, fmt.Errorf("failed to decode workers: %w", err)
	}
	return workers, nil
}

// GetWorker returns metadata for one script.
func (c *Client) GetWorker(ctx context.Context, name string) (*Worker, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.workersPath("/scripts/" + name),
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var worker Worker
	if err := json.Unmarshal(result, &worker); err != nil {
		return nil, fmt.Errorf("failed to decode worker: %w", err)
	}
	return &worker, nil
}

// DeleteWorker removes a script.
func (c *Client) DeleteWorker(ctx context.Context, name string) error {
	_, err := c.Do(ctx, Request{
		Method:        http.MethodDelete,
		Path:          c.workersPath("/scripts/" + name),
		AccountScoped: true,
	})
	return err
}

// WorkersSubdomain returns the account's workers.dev subdomain.
func (c *Client) WorkersSubdomain(ctx context.Context) (string, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.workersPath("/subdomain"),
		AccountScoped: true,
	})
	if err != nil {
		return "", err
	}
	var sub struct {
		Subdomain string `json:"subdomain"`
	}
	if err := json.Unmarshal(result, &sub); err != nil {
		return "", fmt.Errorf("failed to decode workers subdomain: %w", err)
	}
	return sub.Subdomain, nil
}

// SetWorkersSubdomain changes the account's workers.dev subdomain.
func (c *Client) SetWorkersSubdomain(ctx context.Context, subdomain string) error {
	_, err := c.Do(ctx, Request{
		Method:        http.MethodPut,
		Path:          c.workersPath("/subdomain"),
		Body:          map[string]string{"subdomain": subdomain},
		AccountScoped: true,
	})
	return err
}

// ListWorkerDomains returns the account's Workers custom domains.
func (c *Client) ListWorkerDomains(ctx context.Context) ([]WorkerDomain, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.workersPath("/domains"),
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var domains []WorkerDomain
	if err := json.Unmarshal(result, &domains); err != nil {
		return nil, fmt.Errorf("failed to decode worker domains: %w", err)
	}
	return domains, nil
}

// AttachWorkerDomain routes a hostname in the given zone to a Worker service.
func (c *Client) AttachWorkerDomain(ctx context.Context, hostname, zoneID, service, environment string) error {
	if environment == "" {
		environment = "production"
	}
	_, err := c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   c.workersPath("/domains"),
		Body: map[string]string{
			"hostname":    hostname,
			"zone_id":     zoneID,
			"service":     service,
			"environment": environment,
		},
		AccountScoped: true,
	})
	return err
}

// DeployWorker uploads a module-syntax script with the given bindings. The
// upload is a multipart form with a JSON metadata part and the script part.
func (c *Client) DeployWorker(ctx context.Context, name string, script []byte, bindings []WorkerBinding) error {
	metadata := map[string]any{
		"main_module":        "worker.js",
		"compatibility_date": "2024-01-01",
	}
	if len(bindings) > 0 {
		metadata["bindings"] = bindings
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode worker metadata: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := formPart(form, "metadata", "metadata.json", "application/json")
	if err != nil {
		return err
	}
	if _, err := part.Write(metadataJSON); err != nil {
		return fmt.Errorf("failed to write worker metadata: %w", err)
	}

	part, err = formPart(form, "worker.js", "worker.js", "application/javascript+module")
	if err != nil {
		return err
	}
	if _, err := part.Write(script); err != nil {
		return fmt.Errorf("failed to write worker script: %w", err)
	}

	if err := form.Close(); err != nil {
		return fmt.Errorf("failed to finalize worker upload: %w", err)
	}

	_, err = c.Do(ctx, Request{
		Method:        http.MethodPut,
		Path:          c.workersPath("/scripts/" + name),
		RawBody:       buf.Bytes(),
		ContentType:   form.FormDataContentType(),
		AccountScoped: true,
	})
	return err
}

func formPart(form *multipart.Writer, field, filename, contentType string) (io.Writer, error) {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s form part: %w", field, err)
	}
	return part, nil
}
