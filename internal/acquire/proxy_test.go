package acquire_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposcribe/internal/acquire"
)

var proxyEnvironmentVariableNames = []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy"}

func TestProxyConfigurationFromEnvironment(testInstance *testing.T) {
	testCases := []struct {
		name        string
		environment map[string]string
		expected    acquire.ProxyConfiguration
	}{
		{
			name: "uppercase_spellings_preferred",
			environment: map[string]string{
				"HTTP_PROXY":  "http://upper.proxy:3128",
				"http_proxy":  "http://lower.proxy:3128",
				"HTTPS_PROXY": "http://upper.secure:3128",
			},
			expected: acquire.ProxyConfiguration{HTTPProxyURL: "http://upper.proxy:3128", HTTPSProxyURL: "http://upper.secure:3128"},
		},
		{
			name: "lowercase_spellings_used_as_fallback",
			environment: map[string]string{
				"http_proxy":  "http://lower.proxy:3128",
				"https_proxy": "http://lower.secure:3128",
			},
			expected: acquire.ProxyConfiguration{HTTPProxyURL: "http://lower.proxy:3128", HTTPSProxyURL: "http://lower.secure:3128"},
		},
		{
			name:        "absent_variables_yield_empty_configuration",
			environment: map[string]string{},
			expected:    acquire.ProxyConfiguration{},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			for _, variableName := range proxyEnvironmentVariableNames {
				subtestInstance.Setenv(variableName, "")
			}
			for variableName, variableValue := range testCase.environment {
				subtestInstance.Setenv(variableName, variableValue)
			}

			require.Equal(subtestInstance, testCase.expected, acquire.ProxyConfigurationFromEnvironment())
		})
	}
}

func TestProxyConfigurationProxyURLFor(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration acquire.ProxyConfiguration
		repositoryURL string
		expectedProxy string
	}{
		{
			name:          "http_url_uses_http_proxy",
			configuration: acquire.ProxyConfiguration{HTTPProxyURL: "http://plain:3128", HTTPSProxyURL: "http://secure:3128"},
			repositoryURL: "http://github.com/example/widget.git",
			expectedProxy: "http://plain:3128",
		},
		{
			name:          "https_url_uses_https_proxy",
			configuration: acquire.ProxyConfiguration{HTTPProxyURL: "http://plain:3128", HTTPSProxyURL: "http://secure:3128"},
			repositoryURL: "https://github.com/example/widget.git",
			expectedProxy: "http://secure:3128",
		},
		{
			name:          "http_url_falls_back_to_https_proxy",
			configuration: acquire.ProxyConfiguration{HTTPSProxyURL: "http://secure:3128"},
			repositoryURL: "http://github.com/example/widget.git",
			expectedProxy: "http://secure:3128",
		},
		{
			name:          "scp_style_url_falls_back_to_http_proxy",
			configuration: acquire.ProxyConfiguration{HTTPProxyURL: "http://plain:3128"},
			repositoryURL: "git@github.com:example/widget.git",
			expectedProxy: "http://plain:3128",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			require.Equal(subtestInstance, testCase.expectedProxy, testCase.configuration.ProxyURLFor(testCase.repositoryURL))
		})
	}
}
