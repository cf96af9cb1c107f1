package eventstream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/envelope"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

type fakeStream struct {
	inputs []*kinesis.PutRecordInput
	err    error
}

func (f *fakeStream) PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &kinesis.PutRecordOutput{SequenceNumber: aws.String("seq-1")}, nil
}

type fakeBus struct {
	inputs []*eventbridge.PutEventsInput
	err    error
}

func (f *fakeBus) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &eventbridge.PutEventsOutput{
		Entries: []ebtypes.PutEventsResultEntry{{EventId: aws.String("evt-1")}},
	}, nil
}

func testPublisher(stream streamAPI, bus busAPI) *Publisher {
	return &Publisher{
		stream:        stream,
		bus:           bus,
		streamName:    "eq-interactions-stream-dev",
		busName:       "default",
		source:        "com.yourapp.transcription",
		streamEnabled: true,
		busEnabled:    true,
		logger:        applog.NewModuleLogger("eventstream", "publisher"),
	}
}

func testEnvelope() *envelope.EnvelopeV1 {
	env := envelope.New(uuid.New(), "u1", envelope.InteractionTypeNote,
		envelope.Content{Text: "hi", Format: envelope.FormatPlain}, envelope.SourceAPI)
	env.InteractionID = uuid.New()
	env.TraceID = uuid.New().String()
	return env
}

// TestPublishBothDestinations 双目的地都成功时返回两个确认
func TestPublishBothDestinations(t *testing.T) {
	stream := &fakeStream{}
	bus := &fakeBus{}
	p := testPublisher(stream, bus)
	env := testEnvelope()

	result := p.Publish(context.Background(), env)

	assert.Equal(t, "seq-1", result.StreamSequence)
	assert.Equal(t, "evt-1", result.BusEventID)
	require.Len(t, stream.inputs, 1)
	require.Len(t, bus.inputs, 1)
}

// TestPublishPartitionKey 流分区键必须是 tenant_id 字符串
func TestPublishPartitionKey(t *testing.T) {
	stream := &fakeStream{}
	p := testPublisher(stream, &fakeBus{})
	env := testEnvelope()

	p.Publish(context.Background(), env)

	require.Len(t, stream.inputs, 1)
	assert.Equal(t, env.TenantID.String(), aws.ToString(stream.inputs[0].PartitionKey))
}

// TestPublishStreamRecordShape 流记录顶层包含路由字段与完整信封
func TestPublishStreamRecordShape(t *testing.T) {
	stream := &fakeStream{}
	p := testPublisher(stream, &fakeBus{})
	env := testEnvelope()

	p.Publish(context.Background(), env)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(stream.inputs[0].Data, &raw))
	for _, key := range []string{"envelope", "trace_id", "tenant_id", "schema_version"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, env.TraceID, raw["trace_id"])
}

// TestPublishBusEntryShape 总线条目：Source/DetailType/Detail
func TestPublishBusEntryShape(t *testing.T) {
	bus := &fakeBus{}
	p := testPublisher(&fakeStream{}, bus)
	env := testEnvelope()

	p.Publish(context.Background(), env)

	require.Len(t, bus.inputs, 1)
	entry := bus.inputs[0].Entries[0]
	assert.Equal(t, "com.yourapp.transcription", aws.ToString(entry.Source))
	assert.Equal(t, "BatchProcessingCompleted", aws.ToString(entry.DetailType))

	var decoded envelope.EnvelopeV1
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &decoded))
	assert.Equal(t, env.TenantID, decoded.TenantID)
}

// TestPublishStreamFailureDoesNotBlockBus 流失败不影响总线，也不抛错
func TestPublishStreamFailureDoesNotBlockBus(t *testing.T) {
	stream := &fakeStream{err: errors.New("stream down")}
	bus := &fakeBus{}
	p := testPublisher(stream, bus)

	result := p.Publish(context.Background(), testEnvelope())

	assert.Equal(t, "", result.StreamSequence)
	assert.Equal(t, "evt-1", result.BusEventID)
	require.Len(t, bus.inputs, 1, "流失败后总线仍应收到记录")
}

// TestPublishBusFailureDoesNotBlockStream 总线失败不影响流
func TestPublishBusFailureDoesNotBlockStream(t *testing.T) {
	stream := &fakeStream{}
	bus := &fakeBus{err: errors.New("bus down")}
	p := testPublisher(stream, bus)

	result := p.Publish(context.Background(), testEnvelope())

	assert.Equal(t, "seq-1", result.StreamSequence)
	assert.Equal(t, "", result.BusEventID)
}

// TestPublishNilStreamClient 未初始化的流客户端被跳过并告警，总线照常
func TestPublishNilStreamClient(t *testing.T) {
	bus := &fakeBus{}
	p := testPublisher(nil, bus)

	result := p.Publish(context.Background(), testEnvelope())

	assert.Equal(t, "", result.StreamSequence)
	assert.Equal(t, "evt-1", result.BusEventID)
}

// TestPublishDisabledDestinations 配置关闭的目的地不被调用
func TestPublishDisabledDestinations(t *testing.T) {
	stream := &fakeStream{}
	bus := &fakeBus{}
	p := testPublisher(stream, bus)
	p.streamEnabled = false
	p.busEnabled = false

	result := p.Publish(context.Background(), testEnvelope())

	assert.Equal(t, "", result.StreamSequence)
	assert.Equal(t, "", result.BusEventID)
	assert.Empty(t, stream.inputs)
	assert.Empty(t, bus.inputs)
}

// TestPublishTranscriptSegment 遥测记录带 tenant 分区键
func TestPublishTranscriptSegment(t *testing.T) {
	stream := &fakeStream{}
	p := testPublisher(stream, &fakeBus{})

	tenantID := uuid.New().String()
	sessionID := uuid.New().String()
	require.NoError(t, p.PublishTranscriptSegment(context.Background(), tenantID, sessionID, "hello world"))

	require.Len(t, stream.inputs, 1)
	assert.Equal(t, tenantID, aws.ToString(stream.inputs[0].PartitionKey))

	var record map[string]any
	require.NoError(t, json.Unmarshal(stream.inputs[0].Data, &record))
	assert.Equal(t, "transcript_segment", record["event_type"])
	assert.Equal(t, sessionID, record["session_id"])
}
