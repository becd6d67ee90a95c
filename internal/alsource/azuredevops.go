package alsource

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// adoAPIVersion is the Azure DevOps REST API version used for every call,
// mirroring azure_devops.py's AzureDevOpsAdapter.API_VERSION.
const adoAPIVersion = "7.1"

// AzureDevOpsAdapter fetches .al files from an Azure DevOps Git repository
// over the ADO REST API, mirroring
// original_source/.../adapters/azure_devops.py's split between a single
// "list items" call (recursionLevel=Full against the items endpoint) and a
// per-file raw-content fetch against that same endpoint with
// Accept: application/octet-stream.
type AzureDevOpsAdapter struct {
	// Org is the Azure DevOps organization name.
	Org string
	// Project is the project name.
	Project string
	// Repo is the repository name.
	Repo string
	// Ref is a branch name, sent with versionType=branch. Defaults to "main".
	Ref string
	// Token is an optional personal access token, sent as HTTP Basic auth
	// per ADO convention (empty username, PAT as password).
	Token string
	// Paths, if non-empty, restricts discovery to a single scope path —
	// the ADO items API's scopePath parameter only accepts one, so only
	// Paths[0] is used, as in azure_devops.py's iter_al_files_sync.
	Paths []string
	// APIBase overrides the default https://dev.azure.com/{org} root, for
	// an on-premises Azure DevOps Server instance.
	APIBase string

	restClient *resty.Client
}

// NewAzureDevOpsAdapter returns an AzureDevOpsAdapter over a repo at the
// "main" branch.
func NewAzureDevOpsAdapter(org, project, repo string) *AzureDevOpsAdapter {
	return &AzureDevOpsAdapter{Org: org, Project: project, Repo: repo, Ref: "main"}
}

type adoItem struct {
	Path          string `json:"path"`
	GitObjectType string `json:"gitObjectType"`
}

type adoItemsResponse struct {
	Value []adoItem `json:"value"`
}

func (a *AzureDevOpsAdapter) ref() string {
	if a.Ref == "" {
		return "main"
	}
	return a.Ref
}

func (a *AzureDevOpsAdapter) apiBase() string {
	if a.APIBase != "" {
		return strings.TrimSuffix(a.APIBase, "/")
	}
	return fmt.Sprintf("https://dev.azure.com/%s", a.Org)
}

func (a *AzureDevOpsAdapter) itemsURL() string {
	return fmt.Sprintf("%s/%s/_apis/git/repositories/%s/items", a.apiBase(), a.Project, a.Repo)
}

func (a *AzureDevOpsAdapter) rest() *resty.Client {
	if a.restClient == nil {
		a.restClient = resty.New().SetTimeout(30 * time.Second)
	}
	return a.restClient
}

func (a *AzureDevOpsAdapter) authHeader() string {
	if a.Token == "" {
		return ""
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+a.Token))
}

// Files implements FileSource.
func (a *AzureDevOpsAdapter) Files(ctx context.Context) ([]SourceFile, error) {
	items, err := a.listItems(ctx)
	if err != nil {
		return nil, err
	}

	var files []SourceFile
	for _, item := range items {
		if item.GitObjectType != "blob" {
			continue
		}
		path := strings.TrimPrefix(item.Path, "/")
		if !isALFile(path) || !a.pathAllowed(path) {
			continue
		}
		content, err := a.fetchContent(ctx, item.Path)
		if err != nil {
			return nil, err
		}
		files = append(files, SourceFile{Path: path, Content: content})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// GetAppJSON fetches app.json from the repository root, returning ("", nil)
// if it doesn't exist.
func (a *AzureDevOpsAdapter) GetAppJSON(ctx context.Context) (string, error) {
	content, err := a.fetchContent(ctx, "/app.json")
	if isNotFound(err) {
		return "", nil
	}
	return content, err
}

func (a *AzureDevOpsAdapter) pathAllowed(path string) bool {
	if len(a.Paths) == 0 {
		return true
	}
	return strings.HasPrefix(path, a.Paths[0])
}

func (a *AzureDevOpsAdapter) listItems(ctx context.Context) ([]adoItem, error) {
	req := a.rest().R().SetContext(ctx).
		SetQueryParam("recursionLevel", "Full").
		SetQueryParam("versionDescriptor.version", a.ref()).
		SetQueryParam("versionDescriptor.versionType", "branch").
		SetQueryParam("api-version", adoAPIVersion).
		SetHeader("Accept", "application/json")
	if len(a.Paths) > 0 {
		req.SetQueryParam("scopePath", a.Paths[0])
	}
	if h := a.authHeader(); h != "" {
		req.SetHeader("Authorization", h)
	}

	var out adoItemsResponse
	resp, err := req.SetResult(&out).Get(a.itemsURL())
	if err != nil {
		return nil, fmt.Errorf("alsource: listing items for %s/%s: %w", a.Project, a.Repo, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alsource: listing items for %s/%s: status %d", a.Project, a.Repo, resp.StatusCode())
	}
	return out.Value, nil
}

func (a *AzureDevOpsAdapter) fetchContent(ctx context.Context, path string) (string, error) {
	req := a.rest().R().SetContext(ctx).
		SetQueryParam("path", path).
		SetQueryParam("versionDescriptor.version", a.ref()).
		SetQueryParam("versionDescriptor.versionType", "branch").
		SetQueryParam("api-version", adoAPIVersion).
		SetHeader("Accept", "application/octet-stream")
	if h := a.authHeader(); h != "" {
		req.SetHeader("Authorization", h)
	}

	resp, err := req.Get(a.itemsURL())
	if err != nil {
		return "", fmt.Errorf("alsource: fetching %s: %w", path, err)
	}
	if resp.StatusCode() == 404 {
		return "", errNotFound
	}
	if resp.IsError() {
		return "", fmt.Errorf("alsource: fetching %s: status %d", path, resp.StatusCode())
	}
	return resp.String(), nil
}
