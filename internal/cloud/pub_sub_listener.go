// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file defines a reusable Pub/Sub message listener which delegates the
// processing of every message to a cor.Command.
//
// Logic Flow:
//  1. An instance of PubSubListener is created with a client and a subscription ID.
//  2. A Command is attached to this listener.
//  3. Listen starts a goroutine which receives messages until the context ends.
//  4. Each message becomes the CtxIn of a fresh chain context, tagged with a
//     run id, and is handed to the Command.
//  5. The message is acknowledged when the Command succeeds. A validation
//     failure is permanent: the message is copied to the dead-letter topic,
//     when one is configured, and acknowledged. Any other failure is
//     negatively acknowledged, so Pub/Sub redelivers it and the whole run is
//     retried.

package cloud

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jaycherian/gcp-go-label-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// RunIDKey is the chain context key holding the id of the current message run.
const RunIDKey = "__RUN_ID__"

// Message is the part of a Pub/Sub message the listener needs.
type Message interface {
	Data() []byte
	Ack()
	Nack()
}

type pubsubMessage struct {
	msg *pubsub.Message
}

func (m pubsubMessage) Data() []byte { return m.msg.Data }
func (m pubsubMessage) Ack()         { m.msg.Ack() }
func (m pubsubMessage) Nack()        { m.msg.Nack() }

// DeadLetterPublisher receives messages that can never be processed.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

// TopicPublisher publishes dead letters to a Pub/Sub topic.
type TopicPublisher struct {
	Topic *pubsub.Topic
}

// Publish sends data and waits for the server to accept it.
func (p *TopicPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) error {
	_, err := p.Topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes}).Get(ctx)
	return err
}

// PubSubListener connects a subscription to a processing command.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	deadLetter   *pubsub.Topic
	command      cor.Command
	wg           sync.WaitGroup
}

// NewPubSubListener creates a listener for the subscription described by config.
//
// Inputs:
//   - pubsubClient: An authenticated *pubsub.Client for connecting to the service.
//   - config: The subscription name, the optional dead-letter topic and the
//     processing timeout. A positive TimeoutInSeconds caps how long a message
//     lease is extended while its run is in progress.
//   - command: The command executed for each message. May be nil and set later.
//
// Outputs:
//   - *PubSubListener: A pointer to the newly created and configured listener.
//   - error: Always nil; kept for symmetry with the other constructors.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	config TopicSubscription,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(config.Name),
		command:      command,
	}
	if config.TimeoutInSeconds > 0 {
		cmd.subscription.ReceiveSettings.MaxExtension = time.Duration(config.TimeoutInSeconds) * time.Second
	}
	if len(config.DeadLetterTopic) > 0 {
		cmd.deadLetter = pubsubClient.Topic(config.DeadLetterTopic)
	}
	return cmd, nil
}

// SetCommand attaches command unless one is already set.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving in the background. Receiving stops when ctx is
// canceled; Wait blocks until then.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.InfoContext(ctx, "listening", "subscription", m.subscription.ID())

	var deadLetter DeadLetterPublisher
	if m.deadLetter != nil {
		deadLetter = &TopicPublisher{Topic: m.deadLetter}
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			HandleMessage(msgCtx, m.command, pubsubMessage{msg: msg}, deadLetter)
		})
		if err != nil {
			slog.ErrorContext(ctx, "error receiving data", "subscription", m.subscription.ID(), "error", err)
		}
		if m.deadLetter != nil {
			m.deadLetter.Stop()
		}
	}()
}

// Wait blocks until the receive loop started by Listen has returned.
func (m *PubSubListener) Wait() {
	m.wg.Wait()
}

// HandleMessage runs command for one message and settles it. Success is
// acknowledged. A validation error is acknowledged after the message was
// handed to deadLetter (nil skips that step); if the hand-off fails the
// message is negatively acknowledged so it is not lost. Every other error is
// negatively acknowledged. It reports whether the message was acknowledged.
func HandleMessage(ctx context.Context, command cor.Command, msg Message, deadLetter DeadLetterPublisher) bool {
	tracer := otel.Tracer("message-listener")
	spanCtx, span := tracer.Start(ctx, "receive-message")
	defer span.End()

	runID := uuid.NewString()
	span.SetAttributes(attribute.String("run_id", runID), attribute.String("msg", string(msg.Data())))
	slog.InfoContext(spanCtx, "received message", "run_id", runID)

	chainCtx := cor.NewContextWithInput(spanCtx, string(msg.Data()))
	chainCtx.Add(RunIDKey, runID)
	defer chainCtx.Close()

	command.Execute(chainCtx)

	if err := chainCtx.Err(); err != nil {
		span.SetStatus(codes.Error, "failed")
		span.RecordError(err)
		if !model.IsValidationError(err) {
			slog.ErrorContext(spanCtx, "error executing chain, message will be redelivered", "run_id", runID, "error", err)
			msg.Nack()
			return false
		}
		slog.WarnContext(spanCtx, "rejecting invalid message", "run_id", runID, "error", err)
		if deadLetter != nil {
			attrs := map[string]string{"run_id": runID, "error": err.Error()}
			if pubErr := deadLetter.Publish(spanCtx, msg.Data(), attrs); pubErr != nil {
				slog.ErrorContext(spanCtx, "failed to publish dead letter", "run_id", runID, "error", pubErr)
				msg.Nack()
				return false
			}
		}
		msg.Ack()
		return true
	}

	span.SetStatus(codes.Ok, "success")
	msg.Ack()
	return true
}
