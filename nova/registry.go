package nova

import (
	"strings"

	"github.com/Laisky/errors/v2"
)

// AwsModelIDMap maps friendly aliases to Bedrock model IDs.
// https://docs.aws.amazon.com/bedrock/latest/userguide/model-ids.html
var AwsModelIDMap = map[string]string{
	"nova-micro":   "amazon.nova-micro-v1:0",
	"nova-lite":    "amazon.nova-lite-v1:0",
	"nova-pro":     "amazon.nova-pro-v1:0",
	"nova-premier": "amazon.nova-premier-v1:0",

	// Aliases matching the upstream pricing names.
	"amazon-nova-micro":   "amazon.nova-micro-v1:0",
	"amazon-nova-lite":    "amazon.nova-lite-v1:0",
	"amazon-nova-pro":     "amazon.nova-pro-v1:0",
	"amazon-nova-premier": "amazon.nova-premier-v1:0",
}

// ResolveModelID turns an alias, raw Bedrock model ID, or inference-profile
// ARN into the ID to send to the service.
func ResolveModelID(name string) (string, error) {
	if id, ok := AwsModelIDMap[name]; ok {
		return id, nil
	}
	// Raw Bedrock IDs ("amazon.nova-micro-v1:0", "us.amazon.nova-pro-v1:0")
	// and ARNs pass through untouched.
	if strings.Contains(name, ".") || strings.HasPrefix(name, "arn:") {
		return name, nil
	}
	return "", errors.Errorf("model %s not found", name)
}

// ListModels returns the known friendly aliases, for discovery endpoints.
func ListModels() []string {
	models := make([]string, 0, len(AwsModelIDMap))
	for alias := range AwsModelIDMap {
		models = append(models, alias)
	}
	return models
}

// RegionMapping maps AWS regions to the inference-profile geo prefixes they
// may route through, primary prefix first.
var RegionMapping = map[string][]string{
	"us-east-1":      {"us"},
	"us-east-2":      {"us"},
	"us-west-2":      {"us"},
	"ca-central-1":   {"us"},
	"sa-east-1":      {"us"},
	"us-gov-east-1":  {"us-gov"},
	"us-gov-west-1":  {"us-gov"},
	"eu-west-1":      {"eu"},
	"eu-west-2":      {"eu"},
	"eu-west-3":      {"eu"},
	"eu-central-1":   {"eu"},
	"eu-north-1":     {"eu"},
	"ap-northeast-1": {"apac"},
	"ap-northeast-2": {"apac"},
	"ap-south-1":     {"apac"},
	"ap-southeast-1": {"apac"},
	"ap-southeast-2": {"apac"},
}

// CrossRegionInferences lists the geo-prefixed inference profiles Bedrock
// publishes for the Nova family.
var CrossRegionInferences = []string{
	"us.amazon.nova-micro-v1:0",
	"us.amazon.nova-lite-v1:0",
	"us.amazon.nova-pro-v1:0",
	"us.amazon.nova-premier-v1:0",
	"us-gov.amazon.nova-lite-v1:0",
	"us-gov.amazon.nova-pro-v1:0",
	"eu.amazon.nova-micro-v1:0",
	"eu.amazon.nova-lite-v1:0",
	"eu.amazon.nova-pro-v1:0",
	"apac.amazon.nova-micro-v1:0",
	"apac.amazon.nova-lite-v1:0",
	"apac.amazon.nova-pro-v1:0",
}

var crossRegionSet = func() map[string]bool {
	set := make(map[string]bool, len(CrossRegionInferences))
	for _, id := range CrossRegionInferences {
		set[id] = true
	}
	return set
}()

func getRegionPrefix(region string) string {
	if prefixes, ok := RegionMapping[region]; ok && len(prefixes) > 0 {
		return prefixes[0]
	}
	return ""
}

// CrossRegionProfile converts a model ID into the geo-prefixed inference
// profile for the given region. Unknown models or regions return the input
// unchanged, so callers can apply it unconditionally.
func CrossRegionProfile(modelID, region string) string {
	prefixes, ok := RegionMapping[region]
	if !ok {
		return modelID
	}
	for _, prefix := range prefixes {
		if candidate := prefix + "." + modelID; crossRegionSet[candidate] {
			return candidate
		}
	}
	return modelID
}
