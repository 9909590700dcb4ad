package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PagesProject is a static-site hosting project.
type PagesProject struct {
	ID                string                           `json:"id"`
	Name              string                           `json:"name"`
	Subdomain         string                           `json:"subdomain"`
	Domains           []string                         `json:"domains"`
	ProductionBranch  string                           `json:"production_branch"`
	CreatedOn         time.Time                        `json:"created_on"`
	DeploymentConfigs map[string]PagesDeploymentConfig `json:"deployment_configs"`
}

// PagesDeploymentConfig holds per-environment settings; only the env vars are
// interesting to the CLI.
type PagesDeploymentConfig struct {
	EnvVars map[string]PagesEnvVar `json:"env_vars"`
}

// PagesEnvVar is one environment variable of a deployment config. Type is
// "plain_text" or "secret_text"; the API omits Value for secrets.
type PagesEnvVar struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// PagesDomain is a custom hostname attached to a Pages project. Attaching one
// triggers automatic DNS and TLS provisioning.
type PagesDomain struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Status           string    `json:"status"`
	VerificationData any       `json:"verification_data,omitempty"`
	CreatedOn        time.Time `json:"created_on"`
}

func (c *Client) pagesPath(parts string) string {
	return fmt.Sprintf("/accounts/%s/pages/projects%s", c.creds.AccountID, parts)
}

// ListPagesProjects returns all Pages projects in the account.
func (c *Client) ListPagesProjects(ctx context.Context) ([]PagesProject, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.pagesPath(""),
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var projects []PagesProject
	if err := json.Unmarshal(result, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode Pages projects: %w", err)
	}
	return projects, nil
}

// GetPagesProject returns one Pages project by name.
func (c *Client) GetPagesProject(ctx context.Context, project string) (*PagesProject, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.pagesPath("/" + project),
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var p PagesProject
	if err := json.Unmarshal(result, &p); err != nil {
		return nil, fmt.Errorf("failed to decode Pages project: %w", err)
	}
	return &p, nil
}

// CreatePagesProject creates a Pages project.
func (c *Client) CreatePagesProject(ctx context.Context, project, productionBranch string) (*PagesProject, error) {
	if productionBranch == "" {
		productionBranch = "main"
	}
	result, err := c.Do(ctx, Request{
		Method:        http.MethodPost,
		Path:          c.pagesPath(""),
		Body:          map[string]string{"name": project, "production_branch": productionBranch},
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var p PagesProject
	if err := json.Unmarshal(result, &p); err != nil {
		return nil, fmt.Errorf("failed to decode created Pages project: %w", err)
	}
	return &p, nil
}

// PagesBuildConfig is the build step of a project's deployments.
type PagesBuildConfig struct {
	BuildCommand   string `json:"build_command"`
	DestinationDir string `json:"destination_dir"`
	RootDir        string `json:"root_dir"`
}

// ConnectPagesGit attaches a GitHub repository as the project's source, with
// PR comments and automatic deployments enabled. The build config defaults to
// pnpm build into dist; UpdatePagesBuild changes it afterwards.
func (c *Client) ConnectPagesGit(ctx context.Context, project, owner, repo, productionBranch string) (*PagesProject, error) {
	if productionBranch == "" {
		productionBranch = "main"
	}
	body := map[string]any{
		"source": map[string]any{
			"type": "github",
			"config": map[string]any{
				"owner":               owner,
				"repo_name":           repo,
				"production_branch":   productionBranch,
				"pr_comments_enabled": true,
				"deployments_enabled": true,
			},
		},
		"build_config": PagesBuildConfig{
			BuildCommand:   "pnpm build",
			DestinationDir: "dist",
		},
	}
	result, err := c.Do(ctx, Request{
		Method:        http.MethodPatch,
		Path:          c.pagesPath("/" + project),
		Body:          body,
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var p PagesProject
	if err := json.Unmarshal(result, &p); err != nil {
		return nil, fmt.Errorf("failed to decode updated Pages project: %w", err)
	}
	return &p, nil
}

// UpdatePagesBuild replaces the project's build configuration.
func (c *Client) UpdatePagesBuild(ctx context.Context, project string, build PagesBuildConfig) (*PagesProject, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodPatch,
		Path:          c.pagesPath("/" + project),
		Body:          map[string]any{"build_config": build},
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var p PagesProject
	if err := json.Unmarshal(result, &p); err != nil {
		return nil, fmt.Errorf("failed to decode updated Pages project: %w", err)
	}
	return &p, nil
}

// ListPagesDomains returns the custom domains of a project.
func (c *Client) ListPagesDomains(ctx context.Context, project string) ([]PagesDomain, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.pagesPath("/" + project + "/domains"),
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var domains []PagesDomain
	if err := json.Unmarshal(result, &domains); err != nil {
		return nil, fmt.Errorf("failed to decode Pages domains: %w", err)
	}
	return domains, nil
}

// AddPagesDomain attaches a custom domain to a project.
func (c *Client) AddPagesDomain(ctx context.Context, project, domain string) (*PagesDomain, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodPost,
		Path:          c.pagesPath("/" + project + "/domains"),
		Body:          map[string]string{"name": domain},
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var d PagesDomain
	if err := json.Unmarshal(result, &d); err != nil {
		return nil, fmt.Errorf("failed to decode Pages domain: %w", err)
	}
	return &d, nil
}

// DeletePagesDomain detaches a custom domain from a project.
func (c *Client) DeletePagesDomain(ctx context.Context, project, domain string) error {
	_, err := c.Do(ctx, Request{
		Method:        http.MethodDelete,
		Path:          c.pagesPath("/" + project + "/domains/" + domain),
		AccountScoped: true,
	})
	return err
}

// ListPagesEnv returns the environment variables of a deployment environment
// ("production" or "preview").
func (c *Client) ListPagesEnv(ctx context.Context, project, environment string) (map[string]PagesEnvVar, error) {
	p, err := c.GetPagesProject(ctx, project)
	if err != nil {
		return nil, err
	}
	return p.DeploymentConfigs[environment].EnvVars, nil
}

// SetPagesEnv sets one environment variable. The API only exposes a
// whole-config PATCH, so this is read-modify-write on the variable map.
func (c *Client) SetPagesEnv(ctx context.Context, project, environment, name, value string, secret bool) error {
	vars, err := c.ListPagesEnv(ctx, project, environment)
	if err != nil {
		return err
	}
	if vars == nil {
		vars = map[string]PagesEnvVar{}
	}
	varType := "plain_text"
	if secret {
		varType = "secret_text"
	}
	vars[name] = PagesEnvVar{Type: varType, Value: value}
	return c.patchPagesEnv(ctx, project, environment, vars)
}

// DeletePagesEnv removes one environment variable. Returns a not-found
// classified error when the variable does not exist.
func (c *Client) DeletePagesEnv(ctx context.Context, project, environment, name string) error {
	vars, err := c.ListPagesEnv(ctx, project, environment)
	if err != nil {
		return err
	}
	if _, ok := vars[name]; !ok {
		return &APIError{
			Status:   http.StatusNotFound,
			Kind:     KindNotFound,
			Errors:   []ErrorEntry{{Message: fmt.Sprintf("variable %q not found in %s/%s", name, project, environment)}},
			Endpoint: c.pagesPath("/" + project),
		}
	}
	delete(vars, name)
	return c.patchPagesEnv(ctx, project, environment, vars)
}

func (c *Client) patchPagesEnv(ctx context.Context, project, environment string, vars map[string]PagesEnvVar) error {
	body := map[string]any{
		"deployment_configs": map[string]any{
			environment: map[string]any{"env_vars": vars},
		},
	}
	_, err := c.Do(ctx, Request{
		Method:        http.MethodPatch,
		Path:          c.pagesPath("/" + project),
		Body:          body,
		AccountScoped: true,
	})
	return err
}
