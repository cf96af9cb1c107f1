package transcription

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMIMETypeForExtension 扩展名映射穷举
func TestMIMETypeForExtension(t *testing.T) {
	tests := map[string]string{
		"wav":  "audio/wav",
		"mp3":  "audio/mpeg",
		"flac": "audio/flac",
		"m4a":  "audio/mp4",
		"webm": "audio/webm",
		"mp4":  "audio/mp4",
	}

	for ext, want := range tests {
		got, ok := MIMETypeForExtension(ext)
		assert.True(t, ok, "扩展名 %s 应受支持", ext)
		assert.Equal(t, want, got)
	}
}

// TestMIMETypeForExtensionRejectsUnknown 不支持的扩展名被拒绝
func TestMIMETypeForExtensionRejectsUnknown(t *testing.T) {
	for _, ext := range []string{"ogg", "txt", "exe", ""} {
		_, ok := MIMETypeForExtension(ext)
		assert.False(t, ok, "扩展名 %s 不应受支持", ext)
	}
}

// TestMIMETypeForExtensionNormalizesInput 大小写与前导点被归一
func TestMIMETypeForExtensionNormalizesInput(t *testing.T) {
	got, ok := MIMETypeForExtension(".MP3")
	assert.True(t, ok)
	assert.Equal(t, "audio/mpeg", got)
}

// TestNormalizeMIMEType 浏览器别名归一为标准类型
func TestNormalizeMIMEType(t *testing.T) {
	tests := map[string]string{
		"audio/x-m4a":  "audio/mp4",
		"audio/m4a":    "audio/mp4",
		"audio/x-wav":  "audio/wav",
		"audio/wave":   "audio/wav",
		"audio/x-mpeg": "audio/mpeg",
		"video/webm":   "audio/webm",
		"AUDIO/X-M4A":  "audio/mp4",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeMIMEType(in))
	}
}

// TestNormalizeMIMETypePassThrough 标准类型原样返回
func TestNormalizeMIMETypePassThrough(t *testing.T) {
	assert.Equal(t, "audio/mpeg", NormalizeMIMEType("audio/mpeg"))
	assert.Equal(t, "application/octet-stream", NormalizeMIMEType("application/octet-stream"))
}
