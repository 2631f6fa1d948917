package aws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhook/gridhook/connector"
	"github.com/gridhook/gridhook/connector/aws"
	"github.com/gridhook/gridhook/integration"
)

func testIntegration(endpointBase string) *integration.Integration {
	cfg := map[string]string{"region": "eu-west-1"}
	if endpointBase != "" {
		cfg["endpoint_base"] = endpointBase
	}
	return &integration.Integration{
		OwnerID: "org_1",
		Name:    "aws",
		Type:    integration.TypeAWS,
		Config:  cfg,
		Status:  integration.StatusActive,
	}
}

func TestInitializeRejectsUnknownRegion(t *testing.T) {
	c := aws.New()
	intg := testIntegration("")
	intg.Config["region"] = "mars-north-1"

	_, err := c.Initialize(context.Background(), intg)
	var verr *connector.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestListRegions(t *testing.T) {
	c := aws.New()
	result, err := c.Execute(context.Background(), testIntegration(""), "list_regions", nil)
	require.NoError(t, err)

	regions, ok := result["regions"].([]any)
	require.True(t, ok)
	assert.Contains(t, regions, "eu-west-1")
	assert.Contains(t, regions, "us-east-1")
}

func TestCheckService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sqs/eu-west-1", r.URL.Path)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := aws.New()
	result, err := c.Execute(context.Background(), testIntegration(srv.URL), "check_service", map[string]any{
		"service": "sqs",
	})
	require.NoError(t, err)

	assert.Equal(t, true, result["reachable"])
	assert.Equal(t, http.StatusForbidden, result["status_code"])
}

func TestTestConnectionTreatsAuthRejectionAsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := aws.New()
	out, err := c.TestConnection(context.Background(), testIntegration(srv.URL))
	require.NoError(t, err)
	assert.True(t, out.Success)
}
