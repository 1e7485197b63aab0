package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/legalintel/counsel/pkg/logger"
)

const (
	streamName    = "COUNSEL_CHAT"
	subjectPrefix = "chat.log."
)

// NATSLog implements Log on a JetStream stream with one subject per
// owner. The stream sequence number becomes the record ID and the server
// receive time becomes the record time.
type NATSLog struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewNATSLog connects to the given NATS URL and ensures the chat stream
// exists.
func NewNATSLog(ctx context.Context, url string) (*NATSLog, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("get jetstream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ">"},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream %s: %w", streamName, err)
	}

	return &NATSLog{nc: nc, js: js}, nil
}

// Close drains the underlying connection.
func (l *NATSLog) Close() {
	l.nc.Close()
}

type wireRecord struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Append publishes the record to the owner's subject. Only role and
// content go over the wire; the server assigns sequence and time.
func (l *NATSLog) Append(ctx context.Context, owner string, rec Record) error {
	data, err := json.Marshal(wireRecord{Role: rec.Role, Content: rec.Content})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if _, err := l.js.Publish(ctx, subjectPrefix+owner, data); err != nil {
		return fmt.Errorf("publish to %s%s: %w", subjectPrefix, owner, err)
	}
	return nil
}

// Subscribe creates an ephemeral consumer over the owner's subject,
// replaying from the beginning, and forwards each fetched batch as one
// snapshot.
func (l *NATSLog) Subscribe(ctx context.Context, owner string) (<-chan Snapshot, error) {
	st, err := l.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("get stream %s: %w", streamName, err)
	}

	consumer, err := st.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: subjectPrefix + owner,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	snapshots := make(chan Snapshot, 8)
	go l.consume(ctx, consumer, snapshots)
	return snapshots, nil
}

func (l *NATSLog) consume(ctx context.Context, consumer jetstream.Consumer, snapshots chan<- Snapshot) {
	defer close(snapshots)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := consumer.Fetch(32, jetstream.FetchMaxWait(2*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		var batch []Record
		for msg := range msgs.Messages() {
			rec, ok := decodeMsg(msg)
			if ok {
				batch = append(batch, rec)
			}
			if err := msg.Ack(); err != nil {
				logger.Debug("Ack failed: %v", err)
			}
		}

		if len(batch) > 0 {
			select {
			case snapshots <- Snapshot{Records: batch}:
			case <-ctx.Done():
				return
			}
		}

		if msgs.Error() != nil && ctx.Err() == nil {
			logger.Debug("Fetch error: %v", msgs.Error())
		}
	}
}

func decodeMsg(msg jetstream.Msg) (Record, bool) {
	var wire wireRecord
	if err := json.Unmarshal(msg.Data(), &wire); err != nil {
		logger.Warn("Dropping malformed log record: %v", err)
		return Record{}, false
	}

	rec := Record{Role: wire.Role, Content: wire.Content}
	if meta, err := msg.Metadata(); err == nil {
		rec.ID = strconv.FormatUint(meta.Sequence.Stream, 10)
		rec.Time = meta.Timestamp
	}
	return rec, true
}

// ReadAll fetches the owner's full log once, for history display rather
// than live reconciliation.
func (l *NATSLog) ReadAll(ctx context.Context, owner string) ([]Record, error) {
	sub, err := l.Subscribe(ctx, owner)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		select {
		case snap, ok := <-sub:
			if !ok {
				return records, nil
			}
			records = append(records, snap.Records...)
		case <-time.After(3 * time.Second):
			return records, nil
		case <-ctx.Done():
			return records, ctx.Err()
		}
	}
}
