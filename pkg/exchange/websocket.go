package exchange

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	// PhoneNumberHeader - заголовок, в котором аппарат сообщает свой номер при подключении
	PhoneNumberHeader = "X-Phone-Number"

	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 5 * time.Second

	// maxErrorBody ограничивает чтение тела ответа при отказе
	maxErrorBody = 4096
)

// WebSocketConfig - параметры подключения к станции
type WebSocketConfig struct {
	// URL станции: ws, wss, http или https (http(s) заменяется на ws(s))
	URL string
	// HandshakeTimeout - таймаут установки соединения
	HandshakeTimeout time.Duration
	// WriteTimeout - таймаут записи одного кадра
	WriteTimeout time.Duration
	// InsecureSkipVerify отключает проверку TLS сертификата станции
	InsecureSkipVerify bool
}

// Validate проверяет конфигурацию
func (c *WebSocketConfig) Validate() error {
	_, err := websocketURL(c.URL)
	if err != nil {
		return err
	}
	if c.HandshakeTimeout < 0 {
		return errors.New("handshake timeout не может быть отрицательным")
	}
	if c.WriteTimeout < 0 {
		return errors.New("write timeout не может быть отрицательным")
	}
	return nil
}

// WebSocketDialer подключается к станции по WebSocket
type WebSocketDialer struct {
	url          string
	dialer       websocket.Dialer
	writeTimeout time.Duration
}

// NewWebSocketDialer создает Dialer по конфигурации
func NewWebSocketDialer(config WebSocketConfig) (*WebSocketDialer, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid websocket config")
	}
	target, _ := websocketURL(config.URL)

	handshakeTimeout := config.HandshakeTimeout
	if handshakeTimeout == 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	writeTimeout := config.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = defaultWriteTimeout
	}

	d := &WebSocketDialer{
		url: target,
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		writeTimeout: writeTimeout,
	}
	if config.InsecureSkipVerify {
		d.dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return d, nil
}

// URL возвращает адрес подключения после нормализации схемы
func (d *WebSocketDialer) URL() string {
	return d.url
}

// Dial подключается к станции. Отказ станции возвращается как *HandshakeError.
func (d *WebSocketDialer) Dial(ctx context.Context, number string) (Conn, error) {
	header := http.Header{}
	header.Set(PhoneNumberHeader, number)

	conn, resp, err := d.dialer.DialContext(ctx, d.url, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, errors.WithStack(handshakeError(resp))
		}
		return nil, errors.Wrapf(err, "failed to connect to %s", d.url)
	}

	return &wsConn{conn: conn, writeTimeout: d.writeTimeout}, nil
}

func handshakeError(resp *http.Response) *HandshakeError {
	hs := &HandshakeError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return hs
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		hs.Message = payload.Message
	}
	return hs
}

// websocketURL проверяет адрес и приводит http(s) к ws(s)
func websocketURL(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("URL станции не указан")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "некорректный URL станции %q", raw)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf("неподдерживаемая схема URL станции: %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.Errorf("в URL станции нет адреса: %q", raw)
	}
	return u.String(), nil
}

// wsConn - Conn поверх gorilla/websocket
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) ReadMessage() (Message, error) {
	var msg Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Message{}, errors.Wrap(ErrClosed, err.Error())
		}
		return Message{}, errors.Wrap(err, "read frame")
	}
	return msg, nil
}

func (c *wsConn) WriteMessage(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return errors.Wrapf(err, "write frame %s", msg.Event)
	}
	return nil
}

// Close отправляет close кадр и закрывает соединение
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
