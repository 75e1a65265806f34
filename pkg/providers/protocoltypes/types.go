package protocoltypes

import (
	"fmt"
	"net/http"
)

// SystemPrompt asks the model to pull recipes out of a video description and
// answer with a fixed JSON shape. Missing values come back as null.
const SystemPrompt = "あなたはデータアナリストだ。\n" +
	"あるYouTube動画の動画説明欄の内容を与える。\n" +
	"この中から料理名、料理手順、材料一覧を抜き出し、以下のフォーマットで返しなさい\n" +
	"食材がグループ分けされている場合、そのグループ名を示すこと。\n" +
	"また何人前かが明記されている場合、その情報も含めること。\n" +
	"料理手順は改行なども含めて原文ママとすること。\n" +
	"該当する情報が無い場合nullとすること。\n" +
	"動画説明欄の内容に情報が含まれない場合`recipes`を空の配列として返すこと。\n" +
	"```json\n" +
	"{\n" +
	"    \"recipes\": [\n" +
	"        {\n" +
	"            \"name\": \"<料理名>\",\n" +
	"            \"serving\": \"<何人前か>\",\n" +
	"            \"procedure\": \"<料理の手順>\",\n" +
	"            \"ingredients\": [\n" +
	"                {\n" +
	"                    \"name\": \"<食材名>\",\n" +
	"                    \"amount\": \"<食材の量>\",\n" +
	"                    \"group\": \"<食材クループ名>\"\n" +
	"                }\n" +
	"            ]\n" +
	"        }\n" +
	"    ]\n" +
	"}\n" +
	"```"

// ErrorReason classifies a failed model call for logs and metrics.
type ErrorReason string

const (
	ReasonAuth       ErrorReason = "auth"
	ReasonRateLimit  ErrorReason = "rate_limit"
	ReasonTimeout    ErrorReason = "timeout"
	ReasonFormat     ErrorReason = "format"
	ReasonOverloaded ErrorReason = "overloaded"
	ReasonUnknown    ErrorReason = "unknown"
)

// ProviderError wraps a model API failure with classification metadata.
type ProviderError struct {
	Reason   ErrorReason
	Provider string
	Model    string
	Status   int
	Wrapped  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s(%s): model=%s status=%d: %v",
		e.Provider, e.Reason, e.Model, e.Status, e.Wrapped)
}

func (e *ProviderError) Unwrap() error {
	return e.Wrapped
}

// ReasonForStatus maps an HTTP status from a model API to an ErrorReason.
func ReasonForStatus(status int) ErrorReason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusTooManyRequests:
		return ReasonRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ReasonTimeout
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ReasonFormat
	case status == 529 || status == http.StatusServiceUnavailable:
		return ReasonOverloaded
	default:
		return ReasonUnknown
	}
}
