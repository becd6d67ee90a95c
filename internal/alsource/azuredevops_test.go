package alsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAzureDevOpsAdapter_Ref_DefaultsToMain(t *testing.T) {
	a := NewAzureDevOpsAdapter("contoso", "ERP", "al-app")
	assert.Equal(t, "main", a.ref())

	a.Ref = "release/1.0"
	assert.Equal(t, "release/1.0", a.ref())
}

func TestAzureDevOpsAdapter_APIBase_DefaultsToCloud(t *testing.T) {
	a := NewAzureDevOpsAdapter("contoso", "ERP", "al-app")
	assert.Equal(t, "https://dev.azure.com/contoso", a.apiBase())

	a.APIBase = "https://ado.contoso.local/tfs/"
	assert.Equal(t, "https://ado.contoso.local/tfs", a.apiBase())
}

func TestAzureDevOpsAdapter_ItemsURL(t *testing.T) {
	a := NewAzureDevOpsAdapter("contoso", "ERP", "al-app")
	assert.Equal(t, "https://dev.azure.com/contoso/ERP/_apis/git/repositories/al-app/items", a.itemsURL())
}

func TestAzureDevOpsAdapter_PathAllowed_NoRestriction(t *testing.T) {
	a := NewAzureDevOpsAdapter("contoso", "ERP", "al-app")
	assert.True(t, a.pathAllowed("src/Customer.al"))
}

func TestAzureDevOpsAdapter_PathAllowed_WithScopePath(t *testing.T) {
	a := &AzureDevOpsAdapter{Org: "contoso", Project: "ERP", Repo: "al-app", Paths: []string{"src/tables/"}}
	assert.True(t, a.pathAllowed("src/tables/Customer.al"))
	assert.False(t, a.pathAllowed("src/codeunits/Helper.al"))
}

func TestAzureDevOpsAdapter_AuthHeader(t *testing.T) {
	a := NewAzureDevOpsAdapter("contoso", "ERP", "al-app")
	assert.Empty(t, a.authHeader())

	a.Token = "abc123"
	assert.Equal(t, "Basic OmFiYzEyMw==", a.authHeader())
}
