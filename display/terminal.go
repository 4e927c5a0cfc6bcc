package scrollplot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	Sc "github.com/maroda/scrollplot/core"
	So "github.com/maroda/scrollplot/obvy"
	Sp "github.com/maroda/scrollplot/plugin"
	Ss "github.com/maroda/scrollplot/server"
	St "github.com/maroda/scrollplot/types"
)

const (
	labelWidth  = 10 // value labels left of a horizontal time axis
	redrawEvery = 250 * time.Millisecond
	timeFormat  = "15:04:05"
)

// Per-series colors, assigned in series order within a sub-plot
var palette = []tcell.Color{
	tcell.ColorMediumSeaGreen,
	tcell.ColorDodgerBlue,
	tcell.ColorDarkOrange,
	tcell.ColorAquaMarine,
	tcell.ColorOrchid,
	tcell.ColorGold,
}

// band is the screen rectangle one sub-plot draws its points into.
// The header row sits just above it.
type band struct {
	x, y, w, h int
}

type indicator struct {
	sub  int
	edge St.Edge
}

// View draws the plot with tcell and serves it over HTTP.
// It is the alarm and legend sink of the plot; those calls arrive
// on the engine loop, everything else on the UI goroutines.
type View struct {
	MU       sync.Mutex
	Engine   *Ss.Engine
	Screen   tcell.Screen      // nil when serving without a terminal
	Stats    *So.StatsInternal // Internal status for prometheus
	server   *http.Server
	Selected int // selected sub-plot
	ZoomAxis Sc.AxisKind
	Status   string // last message on the title row

	state      Sc.PlotState
	alarms     map[indicator]St.AlarmState
	legend     map[[2]string]St.DataPoint // (sub, series) to last value
	hotspots   map[[2]int]indicator       // screen cell to alarm indicator
	bands      []band
	pixelLen   []int // value axis lengths last handed to the plot
	timeInv    bool
	valueInv   bool
	horizontal bool // time on X
}

// NewView builds a View without a screen. The engine is attached
// afterwards because the engine needs the view as a sink first.
func NewView(stats *So.StatsInternal) *View {
	return &View{
		Stats:    stats,
		ZoomAxis: Sc.ValueAxis,
		alarms:   make(map[indicator]St.AlarmState),
		legend:   make(map[[2]string]St.DataPoint),
		hotspots: make(map[[2]int]indicator),
	}
}

// Attach binds the engine and reads its fixed geometry
func (v *View) Attach(e *Ss.Engine) {
	cfg := e.Plot.Config()
	v.MU.Lock()
	defer v.MU.Unlock()
	v.Engine = e
	v.timeInv = cfg.TimeInverted()
	v.valueInv = cfg.ValueInverted()
	v.horizontal = cfg.Orientation == St.TimeOnX
}

////////// sinks

// AlarmStateChanged shows or hides an indicator
func (v *View) AlarmStateChanged(subplot int, edge St.Edge, from, to St.AlarmState) {
	v.MU.Lock()
	defer v.MU.Unlock()
	v.alarms[indicator{subplot, edge}] = to
	if to == St.AlarmRaised {
		v.Status = fmt.Sprintf("sub-plot %d %s limit breached", subplot+1, Sc.EdgeToString(edge))
	}
}

// RefreshLegend updates the value text next to a series
func (v *View) RefreshLegend(subplot int, series string, last St.DataPoint) {
	v.MU.Lock()
	defer v.MU.Unlock()
	v.legend[[2]string{strconv.Itoa(subplot), series}] = last
}

func (v *View) alarmState(sub int, e St.Edge) St.AlarmState {
	return v.alarms[indicator{sub, e}]
}

////////// layout

// layout splits the inner screen into one band per sub-plot:
// stacked rows when time runs across, columns when it runs down
func (v *View) layout(width, height, n int) []band {
	if n == 0 {
		return nil
	}
	bands := make([]band, n)

	if v.horizontal {
		x := 1 + labelWidth
		w := max(width-3-x, 1)
		top, bottom := 2, height-3
		each := max((bottom-top+1)/n, 2)
		for i := range bands {
			y := top + i*each
			bands[i] = band{x: x, y: y + 1, w: w, h: max(each-1, 1)}
		}
		return bands
	}

	x0 := 1 + labelWidth
	each := max((width-3-x0)/n, 4)
	for i := range bands {
		bands[i] = band{x: x0 + i*each, y: 3, w: max(each-1, 1), h: max(height-6, 1)}
	}
	return bands
}

// valueLen is the length in cells of a band's value axis
func (v *View) valueLen(b band) int {
	if v.horizontal {
		return b.h
	}
	return b.w
}

// scale maps val in [lo,hi] onto cells 0..n-1, reversed when flip
func scale(val, lo, hi float64, n int, flip bool) (int, bool) {
	if hi <= lo || n <= 0 || val < lo || val > hi {
		return 0, false
	}
	c := int((val - lo) / (hi - lo) * float64(n-1))
	if flip {
		c = n - 1 - c
	}
	return c, true
}

// cell places a point inside its band. Screen rows grow downwards,
// so a vertical axis with its maximum at the top is flipped.
func (v *View) cell(b band, ps Sc.PlotState, sp Sc.SubPlotState, p St.DataPoint) (int, int, bool) {
	if v.horizontal {
		col, ok := scale(float64(p.Timestamp), float64(ps.MinTime), float64(ps.MaxTime), b.w, v.timeInv)
		if !ok {
			return 0, 0, false
		}
		row, ok := scale(p.Value, sp.Min, sp.Max, b.h, !v.valueInv)
		return b.x + col, b.y + row, ok
	}
	row, ok := scale(float64(p.Timestamp), float64(ps.MinTime), float64(ps.MaxTime), b.h, !v.timeInv)
	if !ok {
		return 0, 0, false
	}
	col, ok := scale(p.Value, sp.Min, sp.Max, b.w, v.valueInv)
	return b.x + col, b.y + row, ok
}

////////// drawing

// DrawText displays the text string at the given (x1, y1) with box size (x2, y2)
func (v *View) DrawText(x1, y1, x2, y2 int, text string) {
	v.DrawStyledText(x1, y1, x2, y2, text, tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue))
}

func (v *View) DrawStyledText(x1, y1, x2, y2 int, text string, style tcell.Style) {
	row := y1
	col := x1
	for _, r := range text {
		v.Screen.SetContent(col, row, r, nil, style)
		col++
		if col >= x2 {
			row++
			col = x1
		}
		if row > y2 {
			break
		}
	}
}

// DrawViewBorder displays the outline of the View
func (v *View) DrawViewBorder(width, height int) {
	hvStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
	v.Screen.SetContent(0, 0, tcell.RuneULCorner, nil, hvStyle)
	v.Screen.SetContent(width, 0, tcell.RuneURCorner, nil, hvStyle)
	v.Screen.SetContent(0, height, tcell.RuneLLCorner, nil, hvStyle)
	v.Screen.SetContent(width, height, tcell.RuneLRCorner, nil, hvStyle)
	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, 0, tcell.RuneHLine, nil, hvStyle)
		v.Screen.SetContent(i, height, tcell.RuneHLine, nil, hvStyle)
	}
	for i := 1; i < height; i++ {
		v.Screen.SetContent(0, i, tcell.RuneVLine, nil, hvStyle)
		v.Screen.SetContent(width, i, tcell.RuneVLine, nil, hvStyle)
	}
}

// indicatorStyle colors an alarm by state; NoAlarm draws nothing
func indicatorStyle(s St.AlarmState) (tcell.Style, bool) {
	base := tcell.StyleDefault.Background(tcell.ColorBlack)
	switch s {
	case St.AlarmRaised:
		return base.Foreground(tcell.ColorRed).Bold(true), true
	case St.AlarmOpenedByUser:
		return base.Foreground(tcell.ColorGold), true
	case St.AlarmClosedByUser:
		return base.Foreground(tcell.ColorGray).Dim(true), true
	default:
		return base, false
	}
}

// drawIndicator puts "▲MAX" or "▼MIN" at (x,y) and remembers the
// cells so a click there presses the alarm
func (v *View) drawIndicator(x, y, sub int, e St.Edge) int {
	style, ok := indicatorStyle(v.alarmState(sub, e))
	if !ok {
		return 0
	}
	text := "▼MIN"
	if e == St.EdgeMax {
		text = "▲MAX"
	}
	i := 0
	for _, r := range text {
		v.Screen.SetContent(x+i, y, r, nil, style)
		v.hotspots[[2]int{x + i, y}] = indicator{sub, e}
		i++
	}
	return i
}

func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// FormatTime is how times are labelled on screen
func FormatTime(ms int64) string {
	return time.UnixMilli(ms).Format(timeFormat)
}

// drawSubPlot draws one band: header, value labels, points
func (v *View) drawSubPlot(b band, ps Sc.PlotState, sp Sc.SubPlotState) {
	header := b.y - 1
	width := b.x + b.w

	nameStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
	if sp.Index == v.Selected {
		nameStyle = nameStyle.Reverse(true)
	}
	name := fmt.Sprintf("%d:%s", sp.Index+1, sp.Name)
	v.DrawStyledText(b.x, header, width, header, name, nameStyle)

	col := b.x + len([]rune(name)) + 1
	for si, ss := range sp.Series {
		style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(palette[si%len(palette)])
		text := ss.Name
		if last, ok := v.legend[[2]string{strconv.Itoa(sp.Index), ss.Name}]; ok {
			text = fmt.Sprintf("%s=%s", ss.Name, formatValue(last.Value))
		}
		v.DrawStyledText(col, header, width, header, text, style)
		col += len([]rune(text)) + 1
	}

	// a raised alarm also marks the band's edge column
	if v.alarmState(sp.Index, St.EdgeMin) == St.AlarmRaised || v.alarmState(sp.Index, St.EdgeMax) == St.AlarmRaised {
		WriteBar(v.Screen, width, b.y, width+1, b.y+b.h, tcell.StyleDefault.Background(tcell.ColorDarkRed))
	}

	// alarm indicators sit at the end of the header
	right := max(b.x, width-9)
	right += v.drawIndicator(right, header, sp.Index, St.EdgeMin) + 1
	v.drawIndicator(right, header, sp.Index, St.EdgeMax)

	// value labels at the ends of the value axis
	lo, hi := formatValue(sp.Min), formatValue(sp.Max)
	if v.horizontal {
		top, bottom := hi, lo
		if v.valueInv {
			top, bottom = lo, hi
		}
		v.DrawText(1, b.y, labelWidth, b.y, top)
		v.DrawText(1, b.y+b.h-1, labelWidth, b.y+b.h-1, bottom)
	} else {
		left, right := lo, hi
		if v.valueInv {
			left, right = hi, lo
		}
		row := b.y + b.h
		v.DrawText(b.x, row, width, row, left)
		v.DrawText(max(b.x, width-len(right)), row, width, row, right)
	}

	for si, ss := range sp.Series {
		style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(palette[si%len(palette)])
		for _, p := range ss.Points {
			if x, y, ok := v.cell(b, ps, sp, p); ok {
				v.Screen.SetContent(x, y, '•', nil, style)
			}
		}
	}
}

// drawTimeLabels marks both ends of the shared time axis
func (v *View) drawTimeLabels(width, height int, ps Sc.PlotState) {
	first, last := FormatTime(ps.MinTime), FormatTime(ps.MaxTime)
	if v.horizontal {
		if v.timeInv {
			first, last = last, first
		}
		row := height - 2
		v.DrawText(1+labelWidth, row, width, row, first)
		v.DrawText(width-3-len(last), row, width, row, last)
		return
	}
	// vertical: max at the top unless inverted
	top, bottom := last, first
	if v.timeInv {
		top, bottom = first, last
	}
	v.DrawText(1, 3, labelWidth, 3, top)
	v.DrawText(1, height-4, labelWidth, height-4, bottom)
}

// DrawPlot draws the whole screen from the last snapshot.
// The caller holds v.MU.
func (v *View) DrawPlot() {
	width, height := v.GetScreenSize()
	ps := v.state
	clear(v.hotspots)

	v.DrawViewBorder(width-2, height-1)

	mode := "LIVE"
	switch {
	case ps.Interacting:
		mode = "INTERACT"
	case ps.TimeZoomed:
		mode = "ZOOMED"
	case ps.TimePinned:
		mode = "PINNED"
	}
	axis := "value"
	if v.ZoomAxis == Sc.TimeAxis {
		axis = "time"
	}
	title := fmt.Sprintf("%s | %s | zoom:%s | %s", mode, ps.TimePolicy, axis, v.Status)
	v.DrawText(1, 1, width-14, 1, title)

	for i, sp := range ps.SubPlots {
		if i < len(v.bands) {
			v.drawSubPlot(v.bands[i], ps, sp)
		}
	}
	v.drawTimeLabels(width, height, ps)

	v.DrawText(1, height-1, width-14, height-1, "z interact | arrows pan | +-[]{} zoom | t/v axis | m/n alarm | r reset | ESC quit")
	v.DrawText(width-12, height-1, width, height-1, "SCROLLPLOT")
}

// GetScreenSize provides the terminal size for drawing
func (v *View) GetScreenSize() (int, int) {
	width, height := v.Screen.Size()
	return width, height
}

// UpdateScreen snapshots the plot and redraws. The snapshot is taken
// before locking the view since the loop may be calling into a sink.
func (v *View) UpdateScreen(ctx context.Context) {
	state, err := v.Engine.Snapshot(ctx)
	if err != nil {
		slog.Error("Could not snapshot plot", slog.Any("Error", err))
		return
	}

	v.MU.Lock()
	width, height := v.GetScreenSize()
	v.state = state
	v.bands = v.layout(width, height, len(state.SubPlots))
	resized := v.pixelLengthsChanged()
	lengths := append([]int(nil), v.pixelLen...)

	v.Screen.Clear()
	v.DrawPlot()
	v.Screen.Show()
	v.MU.Unlock()

	if resized {
		v.installPixelFuncs(lengths)
	}
}

// pixelLengthsChanged records the value axis lengths of the current
// layout and reports whether the plot needs new pixel functions
func (v *View) pixelLengthsChanged() bool {
	changed := len(v.pixelLen) != len(v.bands)
	lengths := make([]int, len(v.bands))
	for i, b := range v.bands {
		lengths[i] = v.valueLen(b)
		if !changed && v.pixelLen[i] != lengths[i] {
			changed = true
		}
	}
	v.pixelLen = lengths
	return changed
}

// installPixelFuncs gives each sub-plot the pixel mapping of its band,
// so the alarm breach test matches what is on screen
func (v *View) installPixelFuncs(lengths []int) {
	v.Engine.Loop.Post(func() {
		for i, n := range lengths {
			if i < v.Engine.Plot.SubPlots() {
				v.Engine.Plot.SetPixelFunc(i, Sc.LinearPixels(n))
			}
		}
	})
	slog.Debug("Pixel functions installed", slog.Any("lengths", lengths))
}

// ResizeScreen resizes the View after terminal changes
func (v *View) ResizeScreen(ctx context.Context) {
	v.Screen.Sync()
	v.UpdateScreen(ctx)
}

// run redraws periodically until ctx is done
func (v *View) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in draw loop", slog.Any("panic", r))
			slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
		}
	}()

	slog.Info("Starting plot view")
	ticker := time.NewTicker(redrawEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			v.UpdateScreen(ctx)
		case <-ctx.Done():
			return
		}
	}
}

////////// lifecycle

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)
		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

// Options for building the engine behind a view
type Options struct {
	StatsAddr   string // listen address for the data server
	HistoryPath string // overrides the config file's history path
	Engine      []Ss.EngineOption
}

// BuildEngine opens the history store when one is configured and
// wires the view into the plot as a sink
func BuildEngine(cf *Ss.ConfigFile, opts Options, view *View) (*Ss.Engine, error) {
	engineOpts := []Ss.EngineOption{
		Ss.WithStats(view.Stats),
		Ss.WithPlotOptions(Sc.WithAlarmSink(view), Sc.WithLegendSink(view)),
	}

	path := cf.History.Path
	if opts.HistoryPath != "" {
		path = opts.HistoryPath
	}
	if path != "" {
		batch := cf.History.BatchSize
		if batch == 0 {
			batch = 64
		}
		store, err := Sp.NewBadgerStore(path, batch)
		if err != nil {
			slog.Error("Failed to open history", slog.Any("Error", err))
			return nil, err
		}
		engineOpts = append(engineOpts, Ss.WithStore(store))
	}
	engineOpts = append(engineOpts, opts.Engine...)

	engine, err := Ss.NewEngine(cf, engineOpts...)
	if err != nil {
		return nil, err
	}
	view.Attach(engine)
	return engine, nil
}

func (v *View) listen(addr string) {
	slog.Info("Starting scrollplot data server...", slog.String("Port", addr))
	if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Could not start data server", slog.Any("Error", err))
	}
}

func (v *View) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.server.Shutdown(ctx); err != nil {
		slog.Error("Data server shutdown", slog.Any("Error", err))
	}
	if err := v.Engine.Stop(); err != nil {
		slog.Error("Engine stop", slog.Any("Error", err))
	}
}

// StartView runs the terminal plot and the data server until ESC
func StartView(ctx context.Context, cf *Ss.ConfigFile, opts Options) error {
	screen, err := GetTTY()
	if err != nil {
		slog.Error("Could not start terminal", slog.Any("Error", err))
		return err
	}
	defer screen.Fini()

	view := NewView(So.NewStatsInternal())
	view.Screen = screen
	engine, err := BuildEngine(cf, opts, view)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view.server = &http.Server{
		Addr:    opts.StatsAddr,
		Handler: view.SetupMux(),
	}
	engine.Start(ctx)
	go view.listen(opts.StatsAddr)
	go view.run(ctx)

	view.UpdateScreen(ctx)
	view.handleEvents(ctx)

	cancel()
	view.shutdown()
	return nil
}

// StartServe runs the engine and data server without a terminal
func StartServe(ctx context.Context, cf *Ss.ConfigFile, opts Options) error {
	view := NewView(So.NewStatsInternal())
	engine, err := BuildEngine(cf, opts, view)
	if err != nil {
		return err
	}

	view.server = &http.Server{
		Addr:    opts.StatsAddr,
		Handler: view.SetupMux(),
	}
	engine.Start(ctx)

	slog.Info("Starting scrollplot web server...", slog.String("Port", opts.StatsAddr))
	errc := make(chan error, 1)
	go func() { errc <- view.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
	case err := <-errc:
		slog.Error("Could not start data server", slog.Any("Error", err))
		if serr := engine.Stop(); serr != nil {
			slog.Error("Engine stop", slog.Any("Error", serr))
		}
		return err
	}
	view.shutdown()
	return nil
}
