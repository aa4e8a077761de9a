package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFencedJSON(t *testing.T) {
	result := Normalize("```json\n{\"sku_names\":[\"A\",\"b\",\"A\"]}\n```")

	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"A", "b"}, result.SKUNames)
}

func TestNormalizeGenericFence(t *testing.T) {
	result := Normalize("Here you go:\n```\n{\"sku_names\":[\"Cola 500ml\"]}\n```\nDone.")

	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"Cola 500ml"}, result.SKUNames)
}

func TestNormalizeUnfenced(t *testing.T) {
	result := Normalize(`{"sku_names":["Water 1L","Chips BBQ"]}`)

	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"Chips BBQ", "Water 1L"}, result.SKUNames)
}

func TestNormalizeLegacyShape(t *testing.T) {
	result := Normalize(`{"detected_items":[{"item_name":"X"},{"item_name":""}]}`)

	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"X"}, result.SKUNames)
}

func TestNormalizeLegacyShapeExtraFields(t *testing.T) {
	raw := `{"detected_items":[
		{"item_name":"Cola 500ml","quantity":12,"confidence":"high"},
		{"item_name":"  Water 1L  ","location":"top shelf"},
		{"quantity":3}
	],"total_items_detected":3}`

	result := Normalize(raw)

	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"Cola 500ml", "Water 1L"}, result.SKUNames)
}

func TestNormalizeBareList(t *testing.T) {
	result := Normalize(`["B", "a", " ", "B", null]`)

	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"B", "a"}, result.SKUNames)
}

func TestNormalizeMalformed(t *testing.T) {
	result := Normalize("not json")

	assert.Equal(t, "Failed to parse JSON response", result.Error)
	assert.Empty(t, result.SKUNames)
	assert.Equal(t, "not json", result.RawResponse)
}

func TestNormalizeMappingWithoutRecognizedKey(t *testing.T) {
	result := Normalize(`{"something_else": 1}`)

	assert.Empty(t, result.Error)
	assert.Empty(t, result.SKUNames)
}

func TestNormalizeTrimsAndDropsBlanks(t *testing.T) {
	result := Normalize(`{"sku_names":["  Cola 500ml ", "", "   ", null, "Cola 500ml"]}`)

	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"Cola 500ml"}, result.SKUNames)
}

func TestNormalizeCaseSensitiveDedup(t *testing.T) {
	result := Normalize(`{"sku_names":["cola","Cola","cola"]}`)

	assert.Equal(t, []string{"Cola", "cola"}, result.SKUNames)
}

func TestNormalizeNonStringEntries(t *testing.T) {
	result := Normalize(`{"sku_names":[42, true, "Juice 1L"]}`)

	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"42", "Juice 1L", "true"}, result.SKUNames)
}

func TestNormalizeFencedJSONWinsOverGeneric(t *testing.T) {
	raw := "```\nignored\n```json\n{\"sku_names\":[\"A\"]}\n```"

	// The json fence marker takes priority even when a generic fence appears
	// earlier in the text.
	result := Normalize(raw)

	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"A"}, result.SKUNames)
}

func TestExtractPayloadNoFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractPayload("  {\"a\":1}  \n"))
}
