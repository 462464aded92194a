package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"havenhub/internal/config"
	"havenhub/internal/metrics"
	"havenhub/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// TokenFunc supplies the current bearer token at call time; empty
// string means anonymous.
type TokenFunc func() string

// Client is the HTTP client for the hotel management backend.
// Every authenticated request carries the current token as a bearer
// credential; a 401 on any non-/auth/ path invokes the auth failure
// handler exactly once per response.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger

	token         TokenFunc
	onAuthFailure func()
	limiter       *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient(cfg config.BackendConfig, logger *zerolog.Logger) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:     logger,
		cacheTTL:   time.Duration(cfg.CacheTTL) * time.Second,
	}
	if cfg.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	return c
}

// SetTokenSource wires the session as the bearer token provider.
func (c *Client) SetTokenSource(fn TokenFunc) {
	c.token = fn
}

// SetAuthFailureHandler registers the logout side effect for 401
// responses outside /auth/*.
func (c *Client) SetAuthFailureHandler(fn func()) {
	c.onAuthFailure = fn
}

// UseRedisCache configures optional Redis caching for GET collections.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	if ttl > 0 {
		c.cacheTTL = ttl
	}
}

// --- auth ---

func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result models.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/register", req, nil)
}

func (c *Client) CreateStaffUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/admin/create-user", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- profile ---

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req models.ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPut, "/users/profile", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UploadProfileImage(ctx context.Context, filename string, data io.Reader) (*models.User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/users/profile/image", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var user models.User
	if err := c.do(req, "/users/profile/image", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- rooms ---

func (c *Client) Rooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if c.readCache(ctx, "rooms", &rooms) {
		return rooms, nil
	}
	if err := c.doJSON(ctx, http.MethodGet, "/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	c.writeCache(ctx, "rooms", rooms)
	return rooms, nil
}

func (c *Client) CreateRoom(ctx context.Context, room models.Room) (*models.Room, error) {
	var created models.Room
	if err := c.doJSON(ctx, http.MethodPost, "/rooms", room, &created); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "rooms")
	return &created, nil
}

func (c *Client) UpdateRoom(ctx context.Context, room models.Room) (*models.Room, error) {
	var updated models.Room
	path := fmt.Sprintf("/rooms/%d", room.ID)
	if err := c.doJSON(ctx, http.MethodPut, path, room, &updated); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "rooms")
	return &updated, nil
}

func (c *Client) DeleteRoom(ctx context.Context, id int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/rooms/%d", id), nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, "rooms")
	return nil
}

func (c *Client) RoomAvailability(ctx context.Context, roomID int64, start, end time.Time) (bool, error) {
	path := fmt.Sprintf("/bookings/room/%d/availability?startDateTime=%s&endDateTime=%s",
		roomID,
		url.QueryEscape(start.Format(time.RFC3339)),
		url.QueryEscape(end.Format(time.RFC3339)))
	var available bool
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &available); err != nil {
		return false, err
	}
	return available, nil
}

// --- bookings ---

func (c *Client) Bookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.doJSON(ctx, http.MethodGet, "/bookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) MyBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.doJSON(ctx, http.MethodGet, "/bookings/my", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodPost, "/bookings", req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) (*models.Booking, error) {
	path := fmt.Sprintf("/bookings/%d/status?status=%s", id, url.QueryEscape(string(status)))
	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodPut, path, nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) CancelBooking(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/bookings/%d", id), nil, nil)
}

func (c *Client) InitiateCheckout(ctx context.Context, id int64, req models.CheckoutRequest) (*models.Booking, error) {
	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/bookings/%d/checkout", id), req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) PayBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/bookings/%d/pay", id), nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// --- notifications ---

func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := c.doJSON(ctx, http.MethodGet, "/notifications", nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var count int64
	if err := c.doJSON(ctx, http.MethodGet, "/notifications/unread", nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPut, "/notifications/read-all", nil, nil)
}

// --- staff ---

func (c *Client) CleanerRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := c.doJSON(ctx, http.MethodGet, "/cleaner/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) CleanerSetRoomStatus(ctx context.Context, id int64, status models.RoomStatus) (*models.Room, error) {
	path := fmt.Sprintf("/cleaner/rooms/%d/status?status=%s", id, url.QueryEscape(string(status)))
	var room models.Room
	if err := c.doJSON(ctx, http.MethodPut, path, nil, &room); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "rooms")
	return &room, nil
}

func (c *Client) ReceptionistBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.doJSON(ctx, http.MethodGet, "/receptionist/bookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) CheckInGuest(ctx context.Context, bookingID int64) (*models.Booking, error) {
	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/receptionist/bookings/%d/checkin", bookingID), nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) CheckOutGuest(ctx context.Context, bookingID int64) (*models.Booking, error) {
	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/receptionist/bookings/%d/checkout", bookingID), nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) ReceptionistUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.doJSON(ctx, http.MethodGet, "/receptionist/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ManagerDashboard(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.doJSON(ctx, http.MethodGet, "/manager/dashboard", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) ManagerAnalytics(ctx context.Context) (map[string]any, error) {
	var analytics map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/manager/analytics", nil, &analytics); err != nil {
		return nil, err
	}
	return analytics, nil
}

// --- plumbing ---

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, path, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncBackend(endpoint, "network_error")
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("backend request failed")
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", req.Method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode >= 300 {
		metrics.IncBackend(endpoint, "error")
		return c.asError(resp, endpoint)
	}

	metrics.IncBackend(endpoint, "ok")
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) asError(resp *http.Response, endpoint string) error {
	message := serverMessage(resp.Body)
	authCall := strings.HasPrefix(endpoint, "/auth/")

	// Expired sessions are fatal; login failures stay on the login path
	// so the caller can show the real credential error.
	if resp.StatusCode == http.StatusUnauthorized && !authCall && c.onAuthFailure != nil {
		c.logger.Warn().Str("endpoint", endpoint).Msg("401 outside /auth, clearing session")
		c.onAuthFailure()
	}

	return newBackendError(resp.StatusCode, message, authCall)
}

// serverMessage extracts {"message": ...} or {"error": ...} from an
// error body, tolerating non-JSON responses.
func serverMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, "snapshot:"+key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, "snapshot:"+key, data, c.cacheTTL).Err()
}

func (c *Client) invalidate(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, "snapshot:"+key).Err()
}
