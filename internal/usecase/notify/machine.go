package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"roe-outage-bot/internal/domain"
	"roe-outage-bot/internal/infra/metrics"
)

// State — опубликованное сообщение и его текст.
// Нулевое значение означает, что с момента старта ничего не публиковалось.
type State struct {
	ActiveMessageID int
	LastBody        string
	HasBody         bool
}

// HasMessage сообщает, есть ли опубликованное сообщение.
func (s State) HasMessage() bool { return s.ActiveMessageID != 0 }

func (s State) shows(body string) bool { return s.HasBody && s.LastBody == body }

// Action — решение, принятое машиной для очередного текста.
type Action string

const (
	ActionSkipped   Action = "skipped"
	ActionCreated   Action = "created"
	ActionEdited    Action = "edited"
	ActionRecreated Action = "recreated"
	ActionFailed    Action = "failed"
)

// Result описывает исход Publish. Err всегда *domain.TransportError или nil.
type Result struct {
	Action    Action
	MessageID int
	Err       error
}

// Machine решает, создать, отредактировать или пропустить сообщение.
type Machine struct {
	transport domain.MessageTransport
	log       zerolog.Logger
}

// NewMachine создаёт машину уведомлений.
func NewMachine(transport domain.MessageTransport, logger zerolog.Logger) *Machine {
	return &Machine{transport: transport, log: logger}
}

// Publish применяет body к state и возвращает новое состояние.
// Состояние меняется только после завершения вызова транспорта.
func (m *Machine) Publish(ctx context.Context, state State, body string) (State, Result) {
	if state.shows(body) {
		m.log.Debug().Int("message_id", state.ActiveMessageID).Msg("notify: текст не изменился, обновление не требуется")
		return m.finish(state, Result{Action: ActionSkipped, MessageID: state.ActiveMessageID})
	}

	if !state.HasMessage() {
		return m.create(ctx, state, body, ActionCreated)
	}

	err := m.transport.Edit(ctx, state.ActiveMessageID, body)
	switch {
	case err == nil:
		state.LastBody, state.HasBody = body, true
		m.log.Info().Int("message_id", state.ActiveMessageID).Msg("notify: сообщение обновлено")
		return m.finish(state, Result{Action: ActionEdited, MessageID: state.ActiveMessageID})
	case domain.IsTransportKind(err, domain.TransportEditExpired):
		m.countError(err)
		m.log.Warn().Err(err).Int("message_id", state.ActiveMessageID).Msg("notify: сообщение устарело, публикуем новое")
		return m.create(ctx, state, body, ActionRecreated)
	default:
		err = asTransportError(err, domain.TransportEditFailed)
		m.log.Error().Err(err).Int("message_id", state.ActiveMessageID).Msg("notify: не удалось обновить сообщение")
		return m.finish(state, Result{Action: ActionFailed, MessageID: state.ActiveMessageID, Err: err})
	}
}

func (m *Machine) create(ctx context.Context, state State, body string, action Action) (State, Result) {
	id, err := m.transport.Create(ctx, body)
	if err == nil && id == 0 {
		err = &domain.TransportError{Kind: domain.TransportMalformedResponse, Err: errors.New("empty message id")}
	}
	if err != nil {
		err = asTransportError(err, domain.TransportCreateFailed)
		m.log.Error().Err(err).Msg("notify: не удалось отправить сообщение")
		return m.finish(state, Result{Action: ActionFailed, MessageID: state.ActiveMessageID, Err: err})
	}

	if state.HasMessage() {
		m.log.Info().Int("old_message_id", state.ActiveMessageID).Int("message_id", id).Msg("notify: опубликовано новое сообщение вместо устаревшего")
	} else {
		m.log.Info().Int("message_id", id).Msg("notify: опубликовано сообщение")
	}
	return m.finish(State{ActiveMessageID: id, LastBody: body, HasBody: true}, Result{Action: action, MessageID: id})
}

func (m *Machine) finish(state State, res Result) (State, Result) {
	metrics.PublishActionsTotal.WithLabelValues(string(res.Action)).Inc()
	if res.Err != nil {
		m.countError(res.Err)
	}
	return state, res
}

func (m *Machine) countError(err error) {
	var te *domain.TransportError
	if errors.As(err, &te) {
		metrics.TransportErrorsTotal.WithLabelValues(string(te.Kind)).Inc()
	}
}

func asTransportError(err error, fallback domain.TransportKind) error {
	var te *domain.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &domain.TransportError{Kind: fallback, Err: err}
}
