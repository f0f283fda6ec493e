package sarif

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

const SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"
const Version = "2.1.0"

const ToolName = "assay"

type Log struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool        Tool                   `json:"tool"`
	Invocations []Invocation           `json:"invocations,omitempty"`
	Results     []Result               `json:"results"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name           string                `json:"name"`
	Version        string                `json:"version,omitempty"`
	InformationURI string                `json:"informationUri,omitempty"`
	Rules          []ReportingDescriptor `json:"rules,omitempty"`
}

type ReportingDescriptor struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name,omitempty"`
	ShortDescription Message                 `json:"shortDescription,omitempty"`
	FullDescription  *Message                `json:"fullDescription,omitempty"`
	Help             *Message                `json:"help,omitempty"`
	HelpURI          string                  `json:"helpUri,omitempty"`
	DefaultConfig    *ReportingConfiguration `json:"defaultConfiguration,omitempty"`
	Properties       map[string]interface{}  `json:"properties,omitempty"`
}

type ReportingConfiguration struct {
	Level string `json:"level,omitempty"`
}

// Invocation records how the run went. A run with rule failures is still
// successful; ToolExecutionNotifications carry the failures.
type Invocation struct {
	WorkingDirectory           *ArtifactLocation `json:"workingDirectory,omitempty"`
	ExecutionSuccessful        bool              `json:"executionSuccessful"`
	ToolExecutionNotifications []Notification    `json:"toolExecutionNotifications,omitempty"`
}

type Notification struct {
	Level          string         `json:"level"`
	Message        Message        `json:"message"`
	Locations      []Location     `json:"locations,omitempty"`
	AssociatedRule *RuleReference `json:"associatedRule,omitempty"`
}

type RuleReference struct {
	ID string `json:"id"`
}

type Result struct {
	RuleID              string                 `json:"ruleId"`
	Level               string                 `json:"level"`
	Message             Message                `json:"message"`
	Locations           []Location             `json:"locations,omitempty"`
	RelatedLocations    []Location             `json:"relatedLocations,omitempty"`
	PartialFingerprints map[string]string      `json:"partialFingerprints,omitempty"`
	Properties          map[string]interface{} `json:"properties,omitempty"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	ID               int              `json:"id,omitempty"`
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
	Message          *Message         `json:"message,omitempty"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region,omitempty"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region columns are 1-based and EndColumn is exclusive, as in SARIF.
type Region struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

func NewLog(toolName, toolVersion string) *Log {
	return &Log{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{{
			Tool: Tool{
				Driver: Driver{
					Name:    toolName,
					Version: toolVersion,
				},
			},
			Results: []Result{},
		}},
	}
}

// FingerprintKey names the partial fingerprint computed by Fingerprint.
const FingerprintKey = "assay/v1"

// Fingerprint returns a stable identity for a result: rule, file, primary
// region and message. Secondary locations do not take part.
func Fingerprint(r Result) string {
	data := struct {
		Rule    string
		URI     string
		Region  Region
		Message string
	}{Rule: r.RuleID, Message: r.Message.Text}
	if len(r.Locations) > 0 {
		data.URI = r.Locations[0].PhysicalLocation.ArtifactLocation.URI
		data.Region = r.Locations[0].PhysicalLocation.Region
	}

	b, _ := json.Marshal(data)
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
