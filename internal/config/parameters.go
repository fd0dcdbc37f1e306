package config

import "fmt"

// Logical provider parameter names. Each is resolved under the deployment
// stage as /{stage}/{name}.
const (
	ParamJiraHost             = "JiraHost"
	ParamJiraUserID           = "JiraUserId"
	ParamJiraAppPassword      = "JiraAppPassword"
	ParamJiraCustomerRefField = "JiraCustomerRefNoFieldId"
	ParamJiraActualResult     = "JiraActualResultFieldId"
	ParamJiraExpectedResult   = "JiraExpectedResultFieldId"
	ParamJiraEnvironment      = "JiraEnvironmentFieldId"
	ParamJiraServiceDeskID    = "JiraServiceDeskId"
	ParamJiraRequestTypeID    = "JiraRequestTypeId"
	ParamSnowHost             = "SnowHost"
	ParamSnowClientID         = "SnowClientId"
	ParamSnowBasicAuth        = "BasicAuth"
	ParamSnowAuthUserName     = "SnowAuthUserName"
	ParamSnowAuthPassword     = "SnowAuthPassword"
	ParamSnowAuthURL          = "SnowAuthUrl"
	ParamSnowToken            = "SNOW_API_TOKEN_KEY_2"
	ParamSnowLegacyToken      = "SNOW_API_TOKEN_KEY_1"
	ParamPresignTTL           = "S3PresignUrlTtl"
)

// Parameters builds stage-qualified provider names.
type Parameters struct {
	Stage string
}

// NewParameters returns a name builder for the stage.
func NewParameters(stage string) Parameters {
	return Parameters{Stage: stage}
}

// Name qualifies a logical parameter name.
func (p Parameters) Name(logical string) string {
	return fmt.Sprintf("/%s/%s", p.Stage, logical)
}

func (p Parameters) JiraHost() string             { return p.Name(ParamJiraHost) }
func (p Parameters) JiraUserID() string           { return p.Name(ParamJiraUserID) }
func (p Parameters) JiraAppPassword() string      { return p.Name(ParamJiraAppPassword) }
func (p Parameters) JiraCustomerRefField() string { return p.Name(ParamJiraCustomerRefField) }
func (p Parameters) JiraActualResult() string     { return p.Name(ParamJiraActualResult) }
func (p Parameters) JiraExpectedResult() string   { return p.Name(ParamJiraExpectedResult) }
func (p Parameters) JiraEnvironment() string      { return p.Name(ParamJiraEnvironment) }
func (p Parameters) JiraServiceDeskID() string    { return p.Name(ParamJiraServiceDeskID) }
func (p Parameters) JiraRequestTypeID() string    { return p.Name(ParamJiraRequestTypeID) }
func (p Parameters) SnowHost() string             { return p.Name(ParamSnowHost) }
func (p Parameters) SnowClientID() string         { return p.Name(ParamSnowClientID) }
func (p Parameters) SnowBasicAuth() string        { return p.Name(ParamSnowBasicAuth) }
func (p Parameters) SnowAuthUserName() string     { return p.Name(ParamSnowAuthUserName) }
func (p Parameters) SnowAuthPassword() string     { return p.Name(ParamSnowAuthPassword) }
func (p Parameters) SnowAuthURL() string          { return p.Name(ParamSnowAuthURL) }
func (p Parameters) SnowToken() string            { return p.Name(ParamSnowToken) }
func (p Parameters) PresignTTL() string           { return p.Name(ParamPresignTTL) }

// JiraConnection lists what every JSD adapter needs before it can talk to the API.
func (p Parameters) JiraConnection() []string {
	return []string{p.JiraHost(), p.JiraUserID(), p.JiraAppPassword()}
}

// SnowConnection lists what the ServiceNow adapter needs up front. The auth
// URL is optional and derived from the host when absent.
func (p Parameters) SnowConnection() []string {
	return []string{p.SnowHost(), p.SnowClientID(), p.SnowAuthUserName(), p.SnowAuthPassword()}
}
