// Package alsource discovers AL source files for the indexing pipeline.
// FileSource is the single contract every adapter implements: given some
// origin-specific configuration, return every (path, text) pair found.
//
// LocalAdapter walks local paths, grounded on
// original_source/.../adapters/local.py. GitHubAdapter lists a repository
// tree with go-github and fetches file contents over HTTP with resty,
// grounded on original_source/.../adapters/github.py (which does both over
// the GitHub API with httpx). AzureDevOpsAdapter lists and fetches items
// through the Azure DevOps REST API with resty, grounded on
// original_source/.../adapters/azure_devops.py.
package alsource
