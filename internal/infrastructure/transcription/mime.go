package transcription

import "strings"

// extensionMIMETypes 受支持的音频扩展名到标准 MIME 类型的映射（穷举）
var extensionMIMETypes = map[string]string{
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"flac": "audio/flac",
	"m4a":  "audio/mp4",
	"webm": "audio/webm",
	"mp4":  "audio/mp4",
}

// mimeAliases 浏览器上报的非标准 MIME 类型到 IANA 标准类型
// macOS 上的浏览器常对 .m4a 报 audio/x-m4a；对象存储会原样保存
// Content-Type，转写方按它做格式探测，非标准值会导致空转写
var mimeAliases = map[string]string{
	"audio/x-m4a":  "audio/mp4",
	"audio/m4a":    "audio/mp4",
	"audio/x-wav":  "audio/wav",
	"audio/wave":   "audio/wav",
	"audio/x-mpeg": "audio/mpeg",
	"video/webm":   "audio/webm",
}

// MIMETypeForExtension 按扩展名查 MIME 类型；不支持的扩展名返回 false
func MIMETypeForExtension(ext string) (string, bool) {
	mime, ok := extensionMIMETypes[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return mime, ok
}

// SupportedExtensions 受支持的扩展名列表（展示用）
func SupportedExtensions() []string {
	return []string{"wav", "mp3", "flac", "m4a", "webm", "mp4"}
}

// NormalizeMIMEType 把非标准 MIME 类型归一为标准值
func NormalizeMIMEType(mimeType string) string {
	key := strings.ToLower(strings.TrimSpace(mimeType))
	if normalized, ok := mimeAliases[key]; ok {
		return normalized
	}
	return mimeType
}
