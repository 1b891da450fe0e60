package ethereum_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/messaging"
	"github.com/feral-file/anky-indexer/internal/mocks"
	ethprovider "github.com/feral-file/anky-indexer/internal/providers/ethereum"
)

type fakeSubscription struct {
	errCh        chan error
	unsubscribed bool
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{errCh: make(chan error, 1)}
}

func (s *fakeSubscription) Err() <-chan error { return s.errCh }
func (s *fakeSubscription) Unsubscribe()      { s.unsubscribed = true }

type testSubscriberMocks struct {
	ctrl       *gomock.Controller
	client     *mocks.MockAnkyClient
	subscriber messaging.Subscriber
}

func setupTestSubscriber(t *testing.T) *testSubscriberMocks {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockAnkyClient(ctrl)

	return &testSubscriberMocks{
		ctrl:   ctrl,
		client: client,
		subscriber: ethprovider.NewSubscriber(ethprovider.Config{
			ChainID:         domain.ChainDegenMainnet,
			ContractAddress: domain.ANKY_FRAMESGIVING_CONTRACT,
		}, client),
	}
}

func eventAt(block uint64, logIndex uint) *domain.AnkyEvent {
	return &domain.AnkyEvent{
		Chain:       domain.ChainDegenMainnet,
		EventType:   domain.EventTypeSessionEnded,
		FID:         1,
		TxHash:      "0xabc",
		LogIndex:    logIndex,
		BlockNumber: block,
	}
}

// parseByBlock makes ParseEventLog echo the log position back as an event
func parseByBlock(tm *testSubscriberMocks) {
	tm.client.EXPECT().ParseEventLog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, vLog types.Log) (*domain.AnkyEvent, error) {
			return eventAt(vLog.BlockNumber, vLog.Index), nil
		}).AnyTimes()
}

func TestSubscribeEvents_BackfillsThenFollowsLiveLogs(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := newFakeSubscription()

	tm.client.EXPECT().SubscribeFilterLogs(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
			assert.Len(t, q.Topics, 1)
			assert.Len(t, q.Topics[0], 5)
			ch <- types.Log{BlockNumber: 105, Index: 0} // already covered by the backfill
			ch <- types.Log{BlockNumber: 106, Index: 0}
			return sub, nil
		})
	tm.client.EXPECT().GetLatestBlock(gomock.Any()).Return(uint64(105), nil)
	tm.client.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			assert.Equal(t, uint64(100), q.FromBlock.Uint64())
			assert.Equal(t, uint64(105), q.ToBlock.Uint64())
			return []types.Log{{BlockNumber: 101, Index: 1}, {BlockNumber: 105, Index: 0}}, nil
		})
	parseByBlock(tm)

	var seen []uint64
	err := tm.subscriber.SubscribeEvents(ctx, 100, func(event *domain.AnkyEvent) error {
		seen = append(seen, event.BlockNumber)
		if len(seen) == 3 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint64{101, 105, 106}, seen)
	assert.True(t, sub.unsubscribed)
}

func TestSubscribeEvents_SkipsBackfillWhenAhead(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := newFakeSubscription()

	tm.client.EXPECT().SubscribeFilterLogs(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
			ch <- types.Log{BlockNumber: 205}
			return sub, nil
		})
	tm.client.EXPECT().GetLatestBlock(gomock.Any()).Return(uint64(199), nil)
	parseByBlock(tm)

	err := tm.subscriber.SubscribeEvents(ctx, 200, func(event *domain.AnkyEvent) error {
		assert.Equal(t, uint64(205), event.BlockNumber)
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubscribeEvents_StopsOnHandlerError(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := newFakeSubscription()
	publishErr := errors.New("nats unavailable")

	tm.client.EXPECT().SubscribeFilterLogs(gomock.Any(), gomock.Any(), gomock.Any()).Return(sub, nil)
	tm.client.EXPECT().GetLatestBlock(gomock.Any()).Return(uint64(10), nil)
	tm.client.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{{BlockNumber: 9}, {BlockNumber: 10}}, nil)
	parseByBlock(tm)

	calls := 0
	err := tm.subscriber.SubscribeEvents(context.Background(), 1, func(*domain.AnkyEvent) error {
		calls++
		return publishErr
	})

	assert.ErrorIs(t, err, publishErr)
	assert.Equal(t, 1, calls)
}

func TestSubscribeEvents_SkipsUndecodableLogs(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := newFakeSubscription()

	tm.client.EXPECT().SubscribeFilterLogs(gomock.Any(), gomock.Any(), gomock.Any()).Return(sub, nil)
	tm.client.EXPECT().GetLatestBlock(gomock.Any()).Return(uint64(10), nil)
	tm.client.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{{BlockNumber: 9}, {BlockNumber: 10}}, nil)
	gomock.InOrder(
		tm.client.EXPECT().ParseEventLog(gomock.Any(), gomock.Any()).Return(nil, domain.ErrUnknownEventType),
		tm.client.EXPECT().ParseEventLog(gomock.Any(), gomock.Any()).Return(eventAt(10, 0), nil),
	)

	var seen []uint64
	err := tm.subscriber.SubscribeEvents(ctx, 1, func(event *domain.AnkyEvent) error {
		seen = append(seen, event.BlockNumber)
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint64{10}, seen)
}

func TestSubscribeEvents_SubscriptionError(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := newFakeSubscription()
	sub.errCh <- errors.New("websocket closed")

	tm.client.EXPECT().SubscribeFilterLogs(gomock.Any(), gomock.Any(), gomock.Any()).Return(sub, nil)
	tm.client.EXPECT().GetLatestBlock(gomock.Any()).Return(uint64(10), nil)

	err := tm.subscriber.SubscribeEvents(context.Background(), 11, func(*domain.AnkyEvent) error { return nil })
	assert.ErrorContains(t, err, "subscription error")
}

func TestSubscribeEvents_RPCParseErrorStops(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := newFakeSubscription()
	rpcErr := errors.New("header not found")

	tm.client.EXPECT().SubscribeFilterLogs(gomock.Any(), gomock.Any(), gomock.Any()).Return(sub, nil)
	tm.client.EXPECT().GetLatestBlock(gomock.Any()).Return(uint64(10), nil)
	tm.client.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{{BlockNumber: 10}}, nil)
	tm.client.EXPECT().ParseEventLog(gomock.Any(), gomock.Any()).Return(nil, rpcErr)

	err := tm.subscriber.SubscribeEvents(context.Background(), 1, func(*domain.AnkyEvent) error { return nil })
	assert.ErrorIs(t, err, rpcErr)
}
