package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"havenhub/internal/api"
	"havenhub/internal/cache"
	"havenhub/internal/config"
	"havenhub/internal/credstore"
	"havenhub/internal/domain"
	"havenhub/internal/events"
	"havenhub/internal/export"
	"havenhub/internal/logging"
	"havenhub/internal/metrics"
	"havenhub/internal/models"
	"havenhub/internal/poller"
	"havenhub/internal/service"
	"havenhub/internal/session"
	"havenhub/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const usage = `hubctl - hotel management client

Usage:
  hubctl <command> [flags]

Session:
  login        -email <email> -password <password>
  logout
  whoami
  register     -email <email> -password <password> [-first -last -phone]
  profile      [-first <name> -last <name> -phone <number>]

Rooms and bookings:
  rooms
  quote        -room <id> -from <time> -to <time>
  book         -room <id> -from <time> -to <time>
  bookings     [-mine]
  approve      -id <booking>
  reject       -id <booking>
  cancel       -id <booking>
  checkout     -id <booking> [-early -reason <text>]
  pay          -id <booking>
  checkin      -id <booking>

Other:
  notifications [-mark-read]
  watch
  export       -from <date> -to <date>
  dashboard

Times are accepted as "2006-01-02 15:04" or "2006-01-02".
`

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

// app holds the wired client stack for command handlers.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	guard         *session.Guard
	bookings      *service.BookingService
	rooms         *service.RoomService
	users         *service.UserService
	notifications *service.NotificationService
	reception     *service.ReceptionService
	manager       *service.ManagerService
	poller        *poller.Poller
	exporter      *export.Exporter
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("command is required")
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	store, err := credstore.New(cfg.Storage.CredentialsPath)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(cfg.Backend, &logger)
	snapshots := initSnapshotCache(ctx, cfg, client, &logger)

	eventBus := events.NewEventBus()
	guard := session.NewGuard(client, store, eventBus, &logger)
	client.SetTokenSource(guard.Token)
	client.SetAuthFailureHandler(guard.HandleAuthFailure)

	metrics.Register()

	// Оптимистичное восстановление сессии; профиль проверяется фоном.
	if guard.Restore(ctx) {
		go guard.Revalidate(ctx)
	}

	backoff := worker.Backoff{
		MaxAttempts: cfg.Poll.MaxRetries,
		Initial:     2 * time.Second,
		Factor:      2,
	}

	a := &app{
		cfg:           cfg,
		logger:        logger,
		guard:         guard,
		bookings:      service.NewBookingService(client, guard, eventBus, &logger),
		rooms:         service.NewRoomService(client, guard, snapshots, &logger),
		users:         service.NewUserService(client, guard, guard, &logger),
		notifications: service.NewNotificationService(client, guard, snapshots, &logger),
		reception:     service.NewReceptionService(client, guard, eventBus, &logger),
		manager:       service.NewManagerService(client, guard, &logger),
		poller: poller.New(client, guard, snapshots, eventBus,
			time.Duration(cfg.Poll.IntervalSeconds)*time.Second, backoff, &logger),
		exporter: export.New(cfg.Exports.Path, &logger),
	}

	return a.dispatch(ctx, command, args)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "hubctl").Logger()
	return cfg, logger, closer, nil
}

// initSnapshotCache wires redis with in-memory failover when enabled,
// plain in-memory otherwise.
func initSnapshotCache(ctx context.Context, cfg *config.Config, client *api.Client, logger *zerolog.Logger) domain.SnapshotCache {
	ttl := time.Duration(cfg.Backend.CacheTTL) * time.Second
	memory := cache.NewMemorySnapshotCache(ttl)

	if !cfg.Redis.Enabled {
		return memory
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	if err := cache.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, starting on in-memory fallback")
	}
	client.UseRedisCache(redisClient, ttl)

	primary := cache.NewRedisSnapshotCache(redisClient, ttl)
	return cache.NewFailoverSnapshotCache(primary, memory, logger)
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		a.guard.Logout(ctx)
		fmt.Println("Logged out.")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "register":
		return a.cmdRegister(ctx, args)
	case "profile":
		return a.cmdProfile(ctx, args)
	case "rooms":
		return a.cmdRooms(ctx)
	case "quote":
		return a.cmdQuote(ctx, args)
	case "book":
		return a.cmdBook(ctx, args)
	case "bookings":
		return a.cmdBookings(ctx, args)
	case "approve":
		return a.cmdTransition(ctx, args, a.bookings.Approve)
	case "reject":
		return a.cmdTransition(ctx, args, a.bookings.Reject)
	case "cancel":
		return a.cmdCancel(ctx, args)
	case "checkout":
		return a.cmdCheckout(ctx, args)
	case "pay":
		return a.cmdTransition(ctx, args, a.bookings.Pay)
	case "checkin":
		return a.cmdTransition(ctx, args, a.reception.CheckIn)
	case "notifications":
		return a.cmdNotifications(ctx, args)
	case "watch":
		return a.cmdWatch(ctx)
	case "export":
		return a.cmdExport(ctx, args)
	case "dashboard":
		return a.cmdDashboard(ctx)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		return fmt.Errorf("both -email and -password are required")
	}

	if err := a.guard.Login(ctx, *email, *password); err != nil {
		return friendly(err)
	}

	user := a.guard.CurrentUser()
	fmt.Printf("Logged in as %s (%s)\n", user.FullName(), rolesLine(user.Roles))
	fmt.Printf("Landing: %s\n", session.DefaultLandingFor(user.Roles))
	return nil
}

func (a *app) cmdWhoami() error {
	user := a.guard.CurrentUser()
	if user == nil {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s <%s>\n", user.FullName(), user.Email)
	fmt.Printf("Roles: %s\n", rolesLine(user.Roles))
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone number")
	_ = fs.Parse(args)

	err := a.users.Register(ctx, models.RegisterRequest{
		Email:       *email,
		Password:    *password,
		FirstName:   *first,
		LastName:    *last,
		PhoneNumber: *phone,
	})
	if err != nil {
		return friendly(err)
	}
	fmt.Println("Account created, you can log in now.")
	return nil
}

func (a *app) cmdProfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	first := fs.String("first", "", "new first name")
	last := fs.String("last", "", "new last name")
	phone := fs.String("phone", "", "new phone number")
	_ = fs.Parse(args)

	if *first != "" || *last != "" || *phone != "" {
		user, err := a.users.UpdateProfile(ctx, models.ProfileUpdate{
			FirstName:   *first,
			LastName:    *last,
			PhoneNumber: *phone,
		})
		if err != nil {
			return friendly(err)
		}
		fmt.Printf("Profile updated: %s <%s>\n", user.FullName(), user.Email)
		return nil
	}

	user, err := a.users.Profile(ctx)
	if err != nil {
		return friendly(err)
	}
	fmt.Printf("%s <%s>\n", user.FullName(), user.Email)
	if user.PhoneNumber != "" {
		fmt.Printf("Phone: %s\n", user.PhoneNumber)
	}
	fmt.Printf("Roles: %s\n", rolesLine(user.Roles))
	return nil
}

func (a *app) cmdRooms(ctx context.Context) error {
	rooms, err := a.rooms.List(ctx)
	if err != nil {
		return friendly(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROOM\tTYPE\tSTATUS\tPRICE/DAY\tPRICE/HOUR")
	for _, r := range rooms {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\t%.2f\n",
			r.ID, r.RoomNumber, r.Type, r.Status, r.Price, r.HourlyRate())
	}
	return w.Flush()
}

func (a *app) cmdQuote(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	roomID := fs.Int64("room", 0, "room id")
	fromStr := fs.String("from", "", "check-in time")
	toStr := fs.String("to", "", "check-out time")
	_ = fs.Parse(args)

	from, to, err := parseInterval(*fromStr, *toStr)
	if err != nil {
		return err
	}

	room, err := a.findRoom(ctx, *roomID)
	if err != nil {
		return err
	}

	q := a.bookings.Quote(*room, from, to)
	if !q.IsValid {
		fmt.Println("Interval is not bookable: check-out must be after check-in.")
		return nil
	}

	fmt.Printf("Room %s: %d hour(s) x %.2f = %.2f\n",
		room.RoomNumber, q.DurationUnits, q.UnitRate, q.TotalPrice)
	if !a.rooms.IsBookable(ctx, *room, from, to) {
		fmt.Println("Note: the room looks occupied for this interval.")
	}
	return nil
}

func (a *app) cmdBook(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	roomID := fs.Int64("room", 0, "room id")
	fromStr := fs.String("from", "", "check-in time")
	toStr := fs.String("to", "", "check-out time")
	_ = fs.Parse(args)

	from, to, err := parseInterval(*fromStr, *toStr)
	if err != nil {
		return err
	}

	booking, err := a.bookings.Submit(ctx, *roomID, from, to)
	if err != nil {
		return friendly(err)
	}

	fmt.Printf("Booking %d created, status %s, total %.2f\n",
		booking.ID, booking.Status, booking.TotalAmount)
	return nil
}

func (a *app) cmdBookings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bookings", flag.ExitOnError)
	mine := fs.Bool("mine", false, "only my bookings")
	_ = fs.Parse(args)

	var (
		list []models.Booking
		err  error
	)
	if *mine {
		list, err = a.bookings.ListMine(ctx)
	} else {
		list, err = a.bookings.ListAll(ctx)
	}
	if err != nil {
		return friendly(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROOM\tCUSTOMER\tFROM\tTO\tSTATUS\tTOTAL\tPAID")
	for _, b := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f\t%v\n",
			b.ID, b.RoomNumber, b.CustomerName,
			b.StartDateTime.Format("2006-01-02 15:04"),
			b.EndDateTime.Format("2006-01-02 15:04"),
			b.Status, b.TotalAmount, b.IsPaid)
	}
	return w.Flush()
}

// cmdTransition covers approve/reject/pay/checkin: look up the booking
// and apply the status change.
func (a *app) cmdTransition(ctx context.Context, args []string, apply func(context.Context, models.Booking) (*models.Booking, error)) error {
	id, err := parseBookingID(args)
	if err != nil {
		return err
	}

	booking, err := a.findBooking(ctx, id)
	if err != nil {
		return err
	}

	updated, err := apply(ctx, *booking)
	if err != nil {
		return friendly(err)
	}
	fmt.Printf("Booking %d is now %s\n", updated.ID, updated.Status)
	return nil
}

func (a *app) cmdCancel(ctx context.Context, args []string) error {
	id, err := parseBookingID(args)
	if err != nil {
		return err
	}

	booking, err := a.findBooking(ctx, id)
	if err != nil {
		return err
	}

	if err := a.bookings.Cancel(ctx, *booking); err != nil {
		return friendly(err)
	}
	fmt.Printf("Booking %d cancelled\n", id)
	return nil
}

func (a *app) cmdCheckout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	id := fs.Int64("id", 0, "booking id")
	early := fs.Bool("early", false, "request early checkout")
	reason := fs.String("reason", "", "early checkout reason")
	_ = fs.Parse(args)

	booking, err := a.findBooking(ctx, *id)
	if err != nil {
		return err
	}

	updated, err := a.bookings.Checkout(ctx, *booking, *early, *reason)
	if err != nil {
		return friendly(err)
	}
	fmt.Printf("Booking %d is now %s", updated.ID, updated.Status)
	if updated.CanPay() {
		fmt.Printf(", payment due: %.2f", updated.TotalAmount)
	}
	fmt.Println()
	return nil
}

func (a *app) cmdNotifications(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("notifications", flag.ExitOnError)
	markRead := fs.Bool("mark-read", false, "mark all notifications as read")
	_ = fs.Parse(args)

	items, err := a.notifications.List(ctx)
	if err != nil {
		return friendly(err)
	}

	for _, n := range items {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s: %s\n", marker, n.CreatedAt.Format("2006-01-02 15:04"), n.Title, n.Message)
	}

	if *markRead {
		if err := a.notifications.MarkAllRead(ctx); err != nil {
			return friendly(err)
		}
		fmt.Println("All notifications marked as read.")
	}
	return nil
}

// cmdWatch runs the unread poller in the foreground until interrupted.
func (a *app) cmdWatch(ctx context.Context) error {
	if !a.guard.Authenticated() {
		return fmt.Errorf("login first")
	}

	a.startMetricsServer(ctx)

	fmt.Printf("Watching notifications every %ds, Ctrl+C to stop.\n", a.cfg.Poll.IntervalSeconds)
	a.poller.Start(ctx)
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fromStr := fs.String("from", "", "start date")
	toStr := fs.String("to", "", "end date")
	_ = fs.Parse(args)

	from, to, err := parseInterval(*fromStr, *toStr)
	if err != nil {
		return err
	}

	list, err := a.bookings.ListAll(ctx)
	if err != nil {
		return friendly(err)
	}

	path, err := a.exporter.Bookings(list, from, to)
	if err != nil {
		return err
	}
	fmt.Printf("Export written to %s\n", path)
	return nil
}

func (a *app) cmdDashboard(ctx context.Context) error {
	stats, err := a.manager.Dashboard(ctx)
	if err != nil {
		return friendly(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Rooms total\t%d\n", stats.TotalRooms)
	fmt.Fprintf(w, "Rooms available\t%d\n", stats.AvailableRooms)
	fmt.Fprintf(w, "Rooms booked\t%d\n", stats.BookedRooms)
	fmt.Fprintf(w, "Bookings\t%d\n", stats.TotalBookings)
	fmt.Fprintf(w, "Users\t%d\n", stats.TotalUsers)
	fmt.Fprintf(w, "Revenue\t%.2f\n", stats.TotalRevenue)
	fmt.Fprintf(w, "Pending revenue\t%.2f\n", stats.PendingRevenue)
	if err := w.Flush(); err != nil {
		return err
	}

	analytics, err := a.manager.Analytics(ctx)
	if err != nil {
		// Дашборд уже показан, аналитика опциональна.
		a.logger.Warn().Err(err).Msg("analytics unavailable")
		return nil
	}
	raw, err := json.MarshalIndent(analytics, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("\nAnalytics:\n%s\n", raw)
	return nil
}

func (a *app) startMetricsServer(ctx context.Context) {
	if !a.cfg.Monitoring.PrometheusEnabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Monitoring.PrometheusPort),
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

func (a *app) findRoom(ctx context.Context, id int64) (*models.Room, error) {
	if id == 0 {
		return nil, fmt.Errorf("-room is required")
	}
	rooms, err := a.rooms.List(ctx)
	if err != nil {
		return nil, friendly(err)
	}
	for i := range rooms {
		if rooms[i].ID == id {
			return &rooms[i], nil
		}
	}
	return nil, fmt.Errorf("room %d not found", id)
}

// findBooking looks in the shared list first, falling back to the
// caller's own bookings for customer accounts.
func (a *app) findBooking(ctx context.Context, id int64) (*models.Booking, error) {
	if id == 0 {
		return nil, fmt.Errorf("-id is required")
	}

	list, err := a.bookings.ListAll(ctx)
	if err != nil {
		list, err = a.bookings.ListMine(ctx)
		if err != nil {
			return nil, friendly(err)
		}
	}

	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("booking %d not found", id)
}

func parseBookingID(args []string) (int64, error) {
	fs := flag.NewFlagSet("booking", flag.ExitOnError)
	id := fs.Int64("id", 0, "booking id")
	_ = fs.Parse(args)
	if *id == 0 {
		return 0, fmt.Errorf("-id is required")
	}
	return *id, nil
}

func parseInterval(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := parseTime(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -from: %w", err)
	}
	to, err := parseTime(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -to: %w", err)
	}
	return from, to, nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("value is required")
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}

func rolesLine(roles []models.Role) string {
	if len(roles) == 0 {
		return "CUSTOMER"
	}
	line := ""
	for i, r := range roles {
		if i > 0 {
			line += ", "
		}
		line += string(r)
	}
	return line
}

// friendly converts backend errors into their user-facing message.
func friendly(err error) error {
	var be *api.BackendError
	if errors.As(err, &be) {
		return fmt.Errorf("%s", be.UserMessage())
	}
	return err
}
