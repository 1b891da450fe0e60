package bridge_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/bridge"
	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/logger"
	mockspkg "github.com/feral-file/anky-indexer/internal/mocks"
	"github.com/feral-file/anky-indexer/internal/reconciler"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testBridgeMocks contains all the mocks needed for testing the bridge
type testBridgeMocks struct {
	ctrl       *gomock.Controller
	natsJS     *mockspkg.MockNatsJetStream
	natsConn   *mockspkg.MockNatsConn
	jetStream  *mockspkg.MockJetStream
	reconciler *mockspkg.MockReconciler
	json       adapter.JSON
}

var testConfig = bridge.Config{
	URL:            "nats://localhost:4222",
	StreamName:     "ANKY_EVENTS",
	ConsumerName:   "anky-bridge",
	MaxReconnects:  10,
	ReconnectWait:  1 * time.Second,
	ConnectionName: "test-bridge",
	AckWaitTimeout: 30 * time.Second,
	MaxDeliver:     5,
}

// setupTestBridge creates all the mocks for testing
func setupTestBridge(t *testing.T) *testBridgeMocks {
	ctrl := gomock.NewController(t)

	return &testBridgeMocks{
		ctrl:       ctrl,
		natsJS:     mockspkg.NewMockNatsJetStream(ctrl),
		natsConn:   mockspkg.NewMockNatsConn(ctrl),
		jetStream:  mockspkg.NewMockJetStream(ctrl),
		reconciler: mockspkg.NewMockReconciler(ctrl),
		json:       adapter.NewJSON(),
	}
}

// tearDownTestBridge cleans up the test mocks
func tearDownTestBridge(mocks *testBridgeMocks) {
	mocks.ctrl.Finish()
}

func newConnectedBridge(t *testing.T, mocks *testBridgeMocks) bridge.Bridge {
	mocks.natsJS.
		EXPECT().
		Connect(testConfig.URL, gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testConfig, mocks.natsJS, mocks.reconciler, mocks.json)
	assert.NoError(t, err)
	assert.NotNil(t, b)
	return b
}

// runWithMessages delivers msgs through a fake consumer and returns once Run exits
func runWithMessages(t *testing.T, mocks *testBridgeMocks, b bridge.Bridge, ctx context.Context, msgs ...adapter.Message) error {
	consumer := mockspkg.NewMockConsumer(mocks.ctrl)
	consumeContext := mockspkg.NewMockConsumeContext(mocks.ctrl)
	consumeContext.EXPECT().Stop().AnyTimes()

	consumer.EXPECT().
		Info(gomock.Any()).
		Return(&jetstream.ConsumerInfo{Name: testConfig.ConsumerName}, nil)
	consumer.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(handler adapter.MessageHandler, opts ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			go func() {
				for _, msg := range msgs {
					handler(msg)
				}
			}()
			return consumeContext, nil
		})

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), testConfig.StreamName, testConfig.ConsumerConfig()).
		Return(consumer, nil)

	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Run(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out")
		return nil
	}
}

const sessionStartedJSON = `{"chain":"eip155:666666666","event_type":"session_started","fid":18350,"session_id":"s1","start_time":1732790000,"tx_from":"","tx_hash":"0xabc123","log_index":2,"block_number":24905600,"block_timestamp":1732790010}`

func newMessage(mocks *testBridgeMocks, data string, delivered uint64) *mockspkg.MockMessage {
	msg := mockspkg.NewMockMessage(mocks.ctrl)
	msg.EXPECT().Data().Return([]byte(data)).AnyTimes()
	msg.EXPECT().Metadata().Return(&jetstream.MsgMetadata{NumDelivered: delivered}, nil).AnyTimes()
	return msg
}

func TestBridge_NewBridge_Success(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	newConnectedBridge(t, mocks)
}

func TestBridge_NewBridge_ConnectError(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	// Mock NATS connection to return error
	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(nil, nil, assert.AnError)

	b, err := bridge.NewBridge(testConfig, mocks.natsJS, mocks.reconciler, mocks.json)

	assert.Error(t, err)
	assert.Nil(t, b)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestBridge_ConsumerConfig_IsOrdered(t *testing.T) {
	cfg := testConfig.ConsumerConfig()

	assert.Equal(t, "anky-bridge", cfg.Durable)
	assert.Equal(t, jetstream.AckExplicitPolicy, cfg.AckPolicy)
	assert.Equal(t, 1, cfg.MaxAckPending)
	assert.Equal(t, 5, cfg.MaxDeliver)
	assert.Equal(t, bridge.FilterSubject, cfg.FilterSubject)
}

func TestBridge_Run_CreateConsumerError(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), testConfig.StreamName, testConfig.ConsumerConfig()).
		Return(nil, assert.AnError)

	err := b.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create/update consumer")
}

func TestBridge_Run_ConsumerInfoError(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)

	consumer := mockspkg.NewMockConsumer(mocks.ctrl)
	consumer.EXPECT().
		Info(gomock.Any()).
		Return(nil, assert.AnError)

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	err := b.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get consumer info")
}

func TestBridge_Run_ConsumeError(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)

	consumer := mockspkg.NewMockConsumer(mocks.ctrl)
	consumer.EXPECT().
		Info(gomock.Any()).
		Return(&jetstream.ConsumerInfo{Name: testConfig.ConsumerName}, nil)
	consumer.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	err := b.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create subscription")
}

func TestBridge_Run_ContextCancellation(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runWithMessages(t, mocks, b, ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestBridge_ProcessMessage_AcksAppliedEvent(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := newMessage(mocks, sessionStartedJSON, 1)
	mocks.reconciler.EXPECT().
		Handle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *domain.AnkyEvent) error {
			assert.Equal(t, domain.EventTypeSessionStarted, event.EventType)
			assert.Equal(t, int64(18350), event.FID)
			assert.Equal(t, "s1", event.SessionID)
			assert.Equal(t, "eip155:666666666:0xabc123:2", event.ID())
			return nil
		})
	msg.EXPECT().Ack().DoAndReturn(func() error {
		cancel()
		return nil
	})

	err := runWithMessages(t, mocks, b, ctx, msg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBridge_ProcessMessage_NaksOnHandlerError(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := newMessage(mocks, sessionStartedJSON, 2)
	mocks.reconciler.EXPECT().
		Handle(gomock.Any(), gomock.Any()).
		Return(reconciler.ErrNoCompletedSessions)
	msg.EXPECT().Nak().DoAndReturn(func() error {
		cancel()
		return nil
	})

	err := runWithMessages(t, mocks, b, ctx, msg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBridge_ProcessMessage_TermsUnparseableData(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := newMessage(mocks, `{not json`, 1)
	msg.EXPECT().Term().DoAndReturn(func() error {
		cancel()
		return nil
	})

	err := runWithMessages(t, mocks, b, ctx, msg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBridge_ProcessMessage_TermsInvalidEvent(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := newMessage(mocks, `{"chain":"eip155:1","event_type":"session_started","fid":1,"tx_hash":"0x1"}`, 1)
	mocks.reconciler.EXPECT().
		Handle(gomock.Any(), gomock.Any()).
		Return(domain.ErrInvalidEvent)
	msg.EXPECT().Term().DoAndReturn(func() error {
		cancel()
		return nil
	})

	err := runWithMessages(t, mocks, b, ctx, msg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBridge_ProcessMessage_AppliesInStreamOrder(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := newMessage(mocks, sessionStartedJSON, 1)
	second := newMessage(mocks, `{"chain":"eip155:666666666","event_type":"session_ended","fid":18350,"is_anky":true,"tx_hash":"0xdef","log_index":0,"block_number":24905700}`, 1)

	var order []domain.EventType
	mocks.reconciler.EXPECT().
		Handle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *domain.AnkyEvent) error {
			order = append(order, event.EventType)
			return nil
		}).Times(2)
	first.EXPECT().Ack().Return(nil)
	second.EXPECT().Ack().DoAndReturn(func() error {
		cancel()
		return nil
	})

	err := runWithMessages(t, mocks, b, ctx, first, second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []domain.EventType{domain.EventTypeSessionStarted, domain.EventTypeSessionEnded}, order)
}

func TestBridge_ProcessMessage_AckFailureIsLogged(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := newMessage(mocks, sessionStartedJSON, 1)
	mocks.reconciler.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(nil)
	msg.EXPECT().Ack().DoAndReturn(func() error {
		cancel()
		return errors.New("connection closed")
	})

	err := runWithMessages(t, mocks, b, ctx, msg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBridge_Close(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	b := newConnectedBridge(t, mocks)

	// Mock Close
	mocks.natsConn.
		EXPECT().
		Close()

	b.Close()
}
