package rabbitmq_common

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConnectionManager держит одно соединение RabbitMQ на процесс
// и переподключается, когда брокер его закрывает.
type ConnectionManager struct {
	cfg        Config
	connection *amqp.Connection
	mutex      sync.RWMutex
	done       chan struct{}
	closeOnce  sync.Once
	Logger     Logger
}

// NewConnectionManager подключается сразу; ошибка первого подключения возвращается.
func NewConnectionManager(cfg Config, logger Logger) (*ConnectionManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNoopLogger()
	}
	m := &ConnectionManager{cfg: cfg, Logger: logger, done: make(chan struct{})}

	conn, err := m.getConnection()
	if err != nil {
		logger.Error(err, "Initial connection failed")
		return nil, fmt.Errorf("initial connection failed: %w", err)
	}
	go m.handleReconnect(conn)
	return m, nil
}

func (m *ConnectionManager) getConnection() (*amqp.Connection, error) {
	m.mutex.RLock()
	if m.connection != nil && !m.connection.IsClosed() {
		defer m.mutex.RUnlock()
		return m.connection, nil
	}
	m.mutex.RUnlock()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	// другой поток мог успеть переподключиться
	if m.connection != nil && !m.connection.IsClosed() {
		return m.connection, nil
	}

	m.Logger.Debug("ConnectionManager: connecting")
	conn, err := amqp.Dial(m.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ConnectionManager: failed to dial RabbitMQ: %w", err)
	}
	m.connection = conn
	m.Logger.Debug("ConnectionManager: connected")
	return conn, nil
}

// GetChannel открывает новый канал на общем соединении
func (m *ConnectionManager) GetChannel() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := m.getConnection()
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return conn, nil, fmt.Errorf("ConnectionManager: failed to open a channel: %w", err)
	}
	return conn, ch, nil
}

func (m *ConnectionManager) handleReconnect(conn *amqp.Connection) {
	for {
		closed := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-m.done:
			return
		case amqpErr, ok := <-closed:
			if !ok && amqpErr == nil {
				// штатное закрытие через Close
				select {
				case <-m.done:
					return
				default:
				}
			}
			m.Logger.Warn("ConnectionManager: connection closed, reconnecting", "reason", fmt.Sprint(amqpErr))
		}

		for {
			select {
			case <-m.done:
				return
			case <-time.After(m.cfg.reconnectDelay()):
			}
			next, err := m.getConnection()
			if err != nil {
				m.Logger.Error(err, "ConnectionManager: reconnect failed")
				continue
			}
			conn = next
			break
		}
	}
}

// Close останавливает переподключение и закрывает соединение
func (m *ConnectionManager) Close() error {
	m.closeOnce.Do(func() { close(m.done) })

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.connection == nil || m.connection.IsClosed() {
		m.Logger.Debug("ConnectionManager: connection was already closed or not established")
		return nil
	}
	if err := m.connection.Close(); err != nil {
		m.Logger.Error(err, "ConnectionManager: failed to close connection properly")
		return err
	}
	m.Logger.Debug("ConnectionManager: connection closed")
	return nil
}
