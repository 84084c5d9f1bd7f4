package flags

const (
	Config                  = "config"
	EnvironmentConfigPrefix = "env-config-prefix"

	Send        = "send"
	Body        = "body"
	Output      = "output"
	MetricsFile = "metrics-file"
)
