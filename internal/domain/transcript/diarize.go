package transcript

import (
	"fmt"
	"strings"
)

// SpeakerUnknownLabel 缺失说话人信息时使用的标签
const SpeakerUnknownLabel = "SPEAKER_UNKNOWN"

// Word 供应商无关的词级转写结果
type Word struct {
	// Text 词文本，优先使用带标点的形式
	Text string

	// Speaker 说话人索引
	Speaker int

	// HasSpeaker 供应商是否给出了说话人信息
	HasSpeaker bool
}

// SpeakerLabel 生成 SPEAKER_<n> 标签
func SpeakerLabel(speaker int) string {
	return fmt.Sprintf("SPEAKER_%d", speaker)
}

// FormatDiarized 把词级说话人标注转换为逐轮文本
// 规则：说话人变化即换行；每行以 SPEAKER_<n>: 开头；同一说话人
// 的连续词用单空格连接。词缺少说话人信息时延续当前说话人，
// 若当前尚无说话人则记为 SPEAKER_UNKNOWN
func FormatDiarized(words []Word) string {
	if len(words) == 0 {
		return ""
	}

	var (
		lines        []string
		currentLabel string
		currentWords []string
	)

	flush := func() {
		if len(currentWords) > 0 {
			lines = append(lines, currentLabel+": "+strings.Join(currentWords, " "))
		}
	}

	for _, w := range words {
		if w.Text == "" {
			continue
		}

		label := currentLabel
		if w.HasSpeaker {
			label = SpeakerLabel(w.Speaker)
		} else if currentLabel == "" {
			label = SpeakerUnknownLabel
		}

		if label != currentLabel {
			flush()
			currentLabel = label
			currentWords = currentWords[:0]
		}
		currentWords = append(currentWords, w.Text)
	}
	flush()

	return strings.Join(lines, "\n")
}
