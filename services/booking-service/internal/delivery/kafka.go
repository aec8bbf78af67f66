package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/apptdesk/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

const DefaultReminderTopic = "booking.reminder.due.v1"

type reminderEvent struct {
	NotificationID int64     `json:"notification_id"`
	AppointmentID  int64     `json:"appointment_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	ClientName     string    `json:"client_name"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	NotifyAt       time.Time `json:"notify_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes each reminder as an event for downstream notifiers.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

func NewKafkaSink(brokers string, topic string) (*KafkaSink, error) {
	list := kafkax.SplitBrokers(brokers)
	if len(list) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if topic == "" {
		topic = DefaultReminderTopic
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(list...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{writer: writer, topic: topic}, nil
}

func (s *KafkaSink) Deliver(ctx context.Context, r Reminder) error {
	msg, err := reminderMessage(ctx, s.topic, r)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, msg)
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// reminderMessage builds the event, keyed by appointment id.
func reminderMessage(ctx context.Context, topic string, r Reminder) (kafka.Message, error) {
	payload, err := json.Marshal(reminderEvent{
		NotificationID: r.NotificationID,
		AppointmentID:  r.AppointmentID,
		Title:          r.Title,
		Message:        r.Message,
		ClientName:     r.ClientName,
		Phone:          r.Phone,
		Email:          r.Email,
		NotifyAt:       r.NotifyAt,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(strconv.FormatInt(r.AppointmentID, 10)),
		Value:   payload,
		Headers: kafkax.EventHeaders(uuid.NewString(), topic),
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	return msg, nil
}
