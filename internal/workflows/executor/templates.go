package executor

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesRaw []byte

type templateFile struct {
	Defaults   map[string]string            `yaml:"defaults"`
	Industries map[string]map[string]string `yaml:"industries"`
}

var messageTemplates templateFile

func init() {
	if err := yaml.Unmarshal(templatesRaw, &messageTemplates); err != nil {
		panic(fmt.Sprintf("parse embedded message templates: %v", err))
	}
}

// lookupTemplate finds a message template, preferring the industry-specific
// variant over the shared default. Returns "" when neither exists.
func lookupTemplate(industry, name string) string {
	if overrides, ok := messageTemplates.Industries[industry]; ok {
		if tpl, ok := overrides[name]; ok {
			return tpl
		}
	}
	return messageTemplates.Defaults[name]
}
