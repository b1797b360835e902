package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const taskAttributeName = "task"

// sqsAPI is the slice of the SQS client the adapter needs.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQS is a domain.Queue backed by an SQS queue. The task name travels as a
// message attribute; failed messages return to the queue and redeliver,
// which is why handlers must be idempotent.
type SQS struct {
	client   sqsAPI
	queueURL string
	logger   *slog.Logger
	handlers map[string]Handler
}

func NewSQS(client sqsAPI, queueURL string, logger *slog.Logger) *SQS {
	return &SQS{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

func (q *SQS) Register(name string, h Handler) {
	q.handlers[name] = h
}

func (q *SQS) Enqueue(ctx context.Context, name string, payload []byte) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			taskAttributeName: {
				DataType:    aws.String("String"),
				StringValue: aws.String(name),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", name, err)
	}
	return nil
}

// Run polls the queue until the context is cancelled. Successfully handled
// messages are deleted; failures stay on the queue for redelivery.
func (q *SQS) Run(ctx context.Context) error {
	for {
		out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(q.queueURL),
			MaxNumberOfMessages:   10,
			WaitTimeSeconds:       20,
			MessageAttributeNames: []string{taskAttributeName},
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			q.logger.Error("receive messages", "error", err)
			continue
		}
		for _, msg := range out.Messages {
			q.handle(ctx, msg)
		}
	}
}

func (q *SQS) handle(ctx context.Context, msg types.Message) {
	attr, ok := msg.MessageAttributes[taskAttributeName]
	if !ok || attr.StringValue == nil {
		q.logger.Warn("message without task attribute, deleting")
		q.delete(ctx, msg)
		return
	}
	name := *attr.StringValue
	h, ok := q.handlers[name]
	if !ok {
		q.logger.Warn("no handler for task", "task", name)
		q.delete(ctx, msg)
		return
	}
	var payload []byte
	if msg.Body != nil {
		payload = []byte(*msg.Body)
	}
	if err := h(ctx, payload); err != nil {
		q.logger.Error("task failed, leaving for redelivery", "task", name, "error", err)
		return
	}
	q.delete(ctx, msg)
}

func (q *SQS) delete(ctx context.Context, msg types.Message) {
	if _, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		q.logger.Error("delete message", "error", err)
	}
}
