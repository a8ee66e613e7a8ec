package acquire

import (
	"os"
	"strings"
)

const (
	httpProxyEnvironmentVariableConstant       = "HTTP_PROXY"
	httpsProxyEnvironmentVariableConstant      = "HTTPS_PROXY"
	lowerHTTPProxyEnvironmentVariableConstant  = "http_proxy"
	lowerHTTPSProxyEnvironmentVariableConstant = "https_proxy"
	httpSchemePrefixConstant                   = "http://"
)

// ProxyConfiguration carries the proxy URLs forwarded to acquisition strategies.
type ProxyConfiguration struct {
	HTTPProxyURL  string
	HTTPSProxyURL string
}

// ProxyConfigurationFromEnvironment reads the conventional proxy variables, preferring the uppercase spellings.
func ProxyConfigurationFromEnvironment() ProxyConfiguration {
	return ProxyConfiguration{
		HTTPProxyURL:  firstNonEmptyEnvironmentValue(httpProxyEnvironmentVariableConstant, lowerHTTPProxyEnvironmentVariableConstant),
		HTTPSProxyURL: firstNonEmptyEnvironmentValue(httpsProxyEnvironmentVariableConstant, lowerHTTPSProxyEnvironmentVariableConstant),
	}
}

// ProxyURLFor selects the proxy matching the repository URL scheme, falling back to the other proxy when only one is configured.
func (configuration ProxyConfiguration) ProxyURLFor(repositoryURL string) string {
	if strings.HasPrefix(strings.ToLower(repositoryURL), httpSchemePrefixConstant) {
		if len(configuration.HTTPProxyURL) > 0 {
			return configuration.HTTPProxyURL
		}
		return configuration.HTTPSProxyURL
	}
	if len(configuration.HTTPSProxyURL) > 0 {
		return configuration.HTTPSProxyURL
	}
	return configuration.HTTPProxyURL
}

func firstNonEmptyEnvironmentValue(variableNames ...string) string {
	for _, variableName := range variableNames {
		if value := strings.TrimSpace(os.Getenv(variableName)); len(value) > 0 {
			return value
		}
	}
	return ""
}
