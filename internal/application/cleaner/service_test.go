package cleaner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM 可编排的结构化输出替身
type fakeLLM struct {
	// transform 非空时对输入做变换；否则原样返回
	transform func(user string) string
	// failOn 含该子串的输入返回错误
	failOn string
	calls  []string
}

func (f *fakeLLM) CreateStructured(ctx context.Context, system, user, schemaName string, temperature float32, out any) error {
	f.calls = append(f.calls, user)
	if f.failOn != "" && strings.Contains(user, f.failOn) {
		return errors.New("provider error")
	}

	text := user
	if f.transform != nil {
		text = f.transform(user)
	}

	switch v := out.(type) {
	case *CleanedChunk:
		v.CleanedText = text
	case *MeetingOutput:
		v.Summary = "A short summary."
		v.ActionItems = []string{"Follow up"}
		v.CleanedTranscript = strings.TrimPrefix(text, "Please clean and structure this transcript:\n\n")
	}
	return nil
}

func (f *fakeLLM) Model() string { return "gpt-4o" }

// TestCleanJoinsChunksWithNewline 清洗结果按原轮次以换行连接
func TestCleanJoinsChunksWithNewline(t *testing.T) {
	llm := &fakeLLM{transform: func(s string) string {
		return strings.ReplaceAll(s, "um ", "")
	}}
	s := NewService(llm)

	raw := "SPEAKER_0: um Hello world.\nSPEAKER_1: um Fine thanks."
	cleaned := s.Clean(context.Background(), raw)

	assert.Equal(t, "SPEAKER_0: Hello world.\nSPEAKER_1: Fine thanks.", cleaned)
	assert.Len(t, llm.calls, 2, "每个轮次一次 LLM 调用")
}

// TestCleanChunkFailureFallsBack 单块失败回退原文，不中断其余块
func TestCleanChunkFailureFallsBack(t *testing.T) {
	llm := &fakeLLM{
		transform: func(s string) string { return strings.ToUpper(s) },
		failOn:    "SPEAKER_1",
	}
	s := NewService(llm)

	raw := "SPEAKER_0: first turn.\nSPEAKER_1: second turn.\nSPEAKER_2: third turn."
	cleaned := s.Clean(context.Background(), raw)

	lines := strings.Split(cleaned, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "SPEAKER_0: FIRST TURN.", lines[0])
	assert.Equal(t, "SPEAKER_1: second turn.", lines[1], "失败块应保留原文")
	assert.Equal(t, "SPEAKER_2: THIRD TURN.", lines[2])
}

// TestCleanEmptyInput 空输入原样返回
func TestCleanEmptyInput(t *testing.T) {
	s := NewService(&fakeLLM{})
	assert.Equal(t, "", s.Clean(context.Background(), ""))
	assert.Equal(t, "   ", s.Clean(context.Background(), "   "))
}

// TestCleanMeetingEmptyTranscript 空转写返回占位输出，不调用 LLM
func TestCleanMeetingEmptyTranscript(t *testing.T) {
	llm := &fakeLLM{}
	s := NewService(llm)

	out := s.CleanMeeting(context.Background(), "  \n ")
	require.NotNil(t, out)
	assert.Equal(t, "No content to summarize.", out.Summary)
	assert.Empty(t, out.ActionItems)
	assert.Equal(t, "", out.CleanedTranscript)
	assert.Empty(t, llm.calls)
}

// TestCleanMeetingHappyPath 正常路径返回摘要、行动项与清洗后全文
func TestCleanMeetingHappyPath(t *testing.T) {
	s := NewService(&fakeLLM{})

	out := s.CleanMeeting(context.Background(), "SPEAKER_0: we agreed to ship Friday.")
	require.NotNil(t, out)
	assert.Equal(t, "A short summary.", out.Summary)
	assert.Equal(t, []string{"Follow up"}, out.ActionItems)
	assert.Contains(t, out.CleanedTranscript, "ship Friday")
}

// TestCleanMeetingFailureReturnsRaw LLM 失败时返回原文
func TestCleanMeetingFailureReturnsRaw(t *testing.T) {
	llm := &fakeLLM{failOn: "transcript"}
	s := NewService(llm)

	raw := "SPEAKER_0: the raw transcript."
	out := s.CleanMeeting(context.Background(), raw)
	require.NotNil(t, out)
	assert.Equal(t, raw, out.CleanedTranscript)
	assert.NotEmpty(t, out.Summary)
}
