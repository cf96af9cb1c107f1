package transcript

import (
	"strings"
)

// DefaultMaxTurnWords 单轮允许的最大词数，超过则在句边界细分
const DefaultMaxTurnWords = 500

// SplitLongTurns 按说话人轮次切块
// 每行一轮；词数不超过 maxWords 的轮次原样输出。超长轮次在句边界
// （. ? !）细分，每个子块重新带上原 SPEAKER_<n>: 标签且不超过
// maxWords；只有单句本身超长时才在阈值后最近的空白处硬切
func SplitLongTurns(lines []string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxTurnWords
	}

	var chunks []string
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}

		label, content := splitSpeakerLabel(line)
		if countWords(content) <= maxWords {
			chunks = append(chunks, line)
			continue
		}

		for _, part := range packSentences(splitSentences(content), maxWords) {
			if label != "" {
				chunks = append(chunks, label+" "+part)
			} else {
				chunks = append(chunks, part)
			}
		}
	}
	return chunks
}

// splitSpeakerLabel 拆出行首的 SPEAKER_<n>: 标签，无标签时返回空串
func splitSpeakerLabel(line string) (label, content string) {
	if !strings.HasPrefix(line, "SPEAKER_") {
		return "", line
	}
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", line
	}
	return line[:idx+1], strings.TrimSpace(line[idx+1:])
}

// splitSentences 在句末标点处切分，标点保留在所属句子内
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		// 连续标点（如 "?!"）归入同一句
		if i+1 < len(runes) && (runes[i+1] == '.' || runes[i+1] == '?' || runes[i+1] == '!') {
			continue
		}
		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// packSentences 贪心装句，保证每块词数不超过 maxWords
// 单句超长时按词硬切
func packSentences(sentences []string, maxWords int) []string {
	var (
		chunks  []string
		current []string
		count   int
	)

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			count = 0
		}
	}

	for _, sentence := range sentences {
		n := countWords(sentence)
		if n > maxWords {
			// 超长单句：先结算已有内容，再按词数硬切
			flush()
			words := strings.Fields(sentence)
			for len(words) > 0 {
				take := maxWords
				if take > len(words) {
					take = len(words)
				}
				chunks = append(chunks, strings.Join(words[:take], " "))
				words = words[take:]
			}
			continue
		}
		if count+n > maxWords {
			flush()
		}
		current = append(current, sentence)
		count += n
	}
	flush()

	return chunks
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
