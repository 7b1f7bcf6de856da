package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	cellSize     = 32
	headerHeight = 90 // room for up to five session lines
	panelWidth   = 220
	screenWidth  = 14*cellSize + panelWidth
	screenHeight = 16*cellSize + headerHeight + 30
	flashTime    = 300 * time.Millisecond // line clear flash
	pollInterval = 500 * time.Millisecond
	maxSessions  = 9
)

// ScreenType represents different screens in the app
type ScreenType int

const (
	ScreenWelcome ScreenType = iota
	ScreenGame
)

var (
	backgroundColor = color.RGBA{20, 20, 30, 255}
	emptyColor      = color.RGBA{35, 35, 45, 255}
	pileColor       = color.RGBA{150, 150, 160, 255}
	flashColor      = color.RGBA{255, 255, 255, 255}
)

// One colour per piece kind.
var kindColors = map[string]color.RGBA{
	"L": {255, 165, 0, 255},
	"J": {80, 80, 255, 255},
	"I": {0, 220, 220, 255},
	"O": {240, 220, 0, 255},
	"S": {0, 200, 0, 255},
	"Z": {230, 40, 40, 255},
	"T": {170, 0, 200, 255},
}

// SessionData holds data for a single session
type SessionData struct {
	sessionID  string
	configName string
	state      *Snapshot
	wsConn     *websocket.Conn
	lastUpdate time.Time
	running    bool
	flashUntil time.Time // set when lines clear
}

// WelcomeScreen manages the welcome screen state
type WelcomeScreen struct {
	configs   []ConfigListItem
	cursorPos int
	errorMsg  string
}

// Game represents the desktop game client
type Game struct {
	api           *apiClient
	sessions      []*SessionData
	activeSession int
	stateMutex    sync.RWMutex
	currentScreen ScreenType
	welcomeScreen *WelcomeScreen
}

// NewGame creates the client. Sessions given by ID skip the welcome screen.
func NewGame(api *apiClient, sessionIDs []string) *Game {
	g := &Game{
		api:           api,
		currentScreen: ScreenWelcome,
		welcomeScreen: &WelcomeScreen{},
	}

	for _, sid := range sessionIDs {
		info, err := api.getSession(sid)
		if err != nil {
			log.Printf("Skipping session %s: %v", sid, err)
			continue
		}
		g.addSession(info)
	}
	if len(g.sessions) > 0 {
		g.currentScreen = ScreenGame
	} else {
		g.loadWelcomeData()
	}
	return g
}

// addSession connects to a session's WebSocket and starts its clock.
func (g *Game) addSession(info *SessionInfo) {
	session := &SessionData{
		sessionID:  info.ID,
		configName: info.ConfigName,
		state:      info.Snapshot,
		lastUpdate: time.Now(),
	}

	conn, err := dialSession(g.api.baseURL, session.sessionID)
	if err != nil {
		log.Printf("Failed to connect WebSocket for %s: %v (falling back to polling)", session.sessionID, err)
	} else {
		session.wsConn = conn
		go g.listenWebSocket(session)
	}

	if err := g.api.start(session.sessionID); err != nil {
		log.Printf("Failed to start clock for %s: %v", session.sessionID, err)
	} else {
		session.running = true
	}

	g.stateMutex.Lock()
	g.sessions = append(g.sessions, session)
	g.activeSession = len(g.sessions) - 1
	g.stateMutex.Unlock()
}

// listenWebSocket applies pushed snapshots until the connection drops.
func (g *Game) listenWebSocket(session *SessionData) {
	defer session.wsConn.Close()

	for {
		var msg WSMessage
		if err := session.wsConn.ReadJSON(&msg); err != nil {
			log.Printf("WebSocket read error for %s: %v", session.sessionID, err)
			g.stateMutex.Lock()
			session.wsConn = nil
			g.stateMutex.Unlock()
			return
		}
		if msg.Event == "session_deleted" {
			log.Printf("Session %s was deleted on the server", session.sessionID)
			g.stateMutex.Lock()
			session.wsConn = nil
			g.stateMutex.Unlock()
			return
		}
		if msg.Snapshot == nil {
			continue
		}
		g.stateMutex.Lock()
		applySnapshot(session, msg.Snapshot, time.Now())
		g.stateMutex.Unlock()
	}
}

// applySnapshot stores a new snapshot and starts the flash when the cleared
// line count went up.
func applySnapshot(session *SessionData, snap *Snapshot, now time.Time) {
	if session.state != nil && snap.LinesCleared > session.state.LinesCleared {
		session.flashUntil = now.Add(flashTime)
	}
	session.state = snap
	session.lastUpdate = now
}

func (g *Game) pollSession(session *SessionData) {
	info, err := g.api.getSession(session.sessionID)
	if err != nil {
		log.Printf("Error fetching state for %s: %v", session.sessionID, err)
		session.lastUpdate = time.Now()
		return
	}
	g.stateMutex.Lock()
	applySnapshot(session, info.Snapshot, time.Now())
	g.stateMutex.Unlock()
}

func (g *Game) loadWelcomeData() {
	ws := g.welcomeScreen
	configs, err := g.api.listConfigs()
	if err != nil {
		ws.errorMsg = fmt.Sprintf("Failed to load presets: %v", err)
		return
	}
	ws.configs = configs
	ws.errorMsg = ""
	if ws.cursorPos >= len(configs) {
		ws.cursorPos = 0
	}
}

// sendAction delivers a player input to the active session, over the socket
// when connected and through the REST API otherwise.
func (g *Game) sendAction(action string) error {
	if len(g.sessions) == 0 {
		return fmt.Errorf("no sessions available")
	}
	session := g.sessions[g.activeSession]

	g.stateMutex.RLock()
	conn := session.wsConn
	g.stateMutex.RUnlock()
	if conn != nil {
		return conn.WriteJSON(ClientMessage{Action: action})
	}

	path := "/api/sessions/" + url.PathEscape(session.sessionID) + "/"
	var body interface{}
	switch action {
	case "rotate", "lock", "reset":
		path += action
	default:
		path += "intent"
		body = map[string]string{"intent": action}
	}
	if err := g.api.do(http.MethodPost, path, body, nil); err != nil {
		return err
	}
	g.pollSession(session)
	return nil
}

func (g *Game) toggleClock() {
	if len(g.sessions) == 0 {
		return
	}
	session := g.sessions[g.activeSession]
	var err error
	if session.running {
		err = g.api.stop(session.sessionID)
	} else {
		err = g.api.start(session.sessionID)
	}
	if err != nil {
		log.Printf("Failed to toggle clock for %s: %v", session.sessionID, err)
		return
	}
	session.running = !session.running
}

// Update updates game logic
func (g *Game) Update() error {
	switch g.currentScreen {
	case ScreenWelcome:
		return g.updateWelcomeScreen()
	case ScreenGame:
		return g.updateGameScreen()
	}
	return nil
}

func (g *Game) updateWelcomeScreen() error {
	ws := g.welcomeScreen

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.loadWelcomeData()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && ws.cursorPos < len(ws.configs)-1 {
		ws.cursorPos++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && ws.cursorPos > 0 {
		ws.cursorPos--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) && len(ws.configs) > 0 && len(g.sessions) < maxSessions {
		info, err := g.api.createSession(ws.configs[ws.cursorPos].ConfigID)
		if err != nil {
			ws.errorMsg = fmt.Sprintf("Failed to create session: %v", err)
			return nil
		}
		log.Printf("Created new session: %s (preset: %s)", info.ID, info.ConfigName)
		g.addSession(info)
		g.currentScreen = ScreenGame
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && len(g.sessions) > 0 {
		g.currentScreen = ScreenGame
	}
	return nil
}

// keyActions maps keys to the action sent for them.
var keyActions = []struct {
	keys   []ebiten.Key
	action string
}{
	{[]ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA}, "left"},
	{[]ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD}, "right"},
	{[]ebiten.Key{ebiten.KeyArrowDown, ebiten.KeyS}, "down"},
	{[]ebiten.Key{ebiten.KeyW}, "none"},
	{[]ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyZ}, "rotate"},
	{[]ebiten.Key{ebiten.KeySpace, ebiten.KeyF}, "lock"},
	{[]ebiten.Key{ebiten.KeyR}, "reset"},
}

func (g *Game) updateGameScreen() error {
	if len(g.sessions) == 0 {
		g.currentScreen = ScreenWelcome
		return nil
	}

	for _, session := range g.sessions {
		g.stateMutex.RLock()
		polling := session.wsConn == nil && time.Since(session.lastUpdate) > pollInterval
		g.stateMutex.RUnlock()
		if polling {
			g.pollSession(session)
		}
	}

	for i := ebiten.Key1; i <= ebiten.Key9; i++ {
		if inpututil.IsKeyJustPressed(i) {
			if idx := int(i - ebiten.Key1); idx < len(g.sessions) {
				g.activeSession = idx
			}
		}
	}

	for _, ka := range keyActions {
		for _, key := range ka.keys {
			if inpututil.IsKeyJustPressed(key) {
				if err := g.sendAction(ka.action); err != nil {
					log.Printf("Action %s failed: %v", ka.action, err)
				}
				break
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.toggleClock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.currentScreen = ScreenWelcome
		g.loadWelcomeData()
	}
	return nil
}

// Draw renders the game
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	switch g.currentScreen {
	case ScreenWelcome:
		g.drawWelcomeScreen(screen)
	case ScreenGame:
		g.drawGameScreen(screen)
	}
}

func (g *Game) drawWelcomeScreen(screen *ebiten.Image) {
	ws := g.welcomeScreen

	y := 20
	ebitenutil.DebugPrintAt(screen, "=== BLOCKFALL - CHOOSE A PRESET ===", 20, y)
	y += 30

	if len(ws.configs) == 0 {
		ebitenutil.DebugPrintAt(screen, "No presets available. Is the server running?", 20, y)
		y += 20
	}
	for i, cfg := range ws.configs {
		marker := "  "
		if i == ws.cursorPos {
			marker = "> "
		}
		lock := "manual lock"
		if cfg.AutoLock {
			lock = "auto lock"
		}
		ebitenutil.DebugPrintAt(screen,
			fmt.Sprintf("%s%s (%dms, %s)", marker, cfg.Name, cfg.TickIntervalMS, lock), 20, y)
		y += 16
		if cfg.Description != "" {
			ebitenutil.DebugPrintAt(screen, "    "+cfg.Description, 20, y)
			y += 16
		}
		y += 4
	}

	if ws.errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, ws.errorMsg, 20, y+10)
	}

	help := "Up/Down: Select | Enter: New Game | F5: Refresh"
	if len(g.sessions) > 0 {
		help += " | ESC: Back"
	}
	ebitenutil.DebugPrintAt(screen, help, 20, screenHeight-20)
}

func (g *Game) drawGameScreen(screen *ebiten.Image) {
	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()

	g.drawSessionStats(screen)

	session := g.sessions[g.activeSession]
	if session.state == nil {
		ebitenutil.DebugPrintAt(screen, "Loading...", 20, headerHeight)
		return
	}
	snap := session.state

	flashing := time.Now().Before(session.flashUntil)
	for _, c := range boardCells(snap) {
		x := float32(c.X * cellSize)
		y := float32(c.Y*cellSize + headerHeight)
		vector.DrawFilledRect(screen, x, y, cellSize-1, cellSize-1, cellColor(c.kind, snap.Kind, flashing), false)
	}

	g.drawPanel(screen, session)
	ebitenutil.DebugPrintAt(screen,
		"1-9: Switch | A/D/S/W: Move | Z: Rotate | Space: Lock | P: Pause | R: Reset | N/ESC: Menu",
		10, screenHeight-20)
}

func (g *Game) drawPanel(screen *ebiten.Image, session *SessionData) {
	snap := session.state
	x := 14*cellSize + 15
	y := headerHeight

	lines := []string{
		"Preset: " + session.configName,
		fmt.Sprintf("Score:  %d", snap.Score),
		fmt.Sprintf("Lines:  %d", snap.LinesCleared),
		fmt.Sprintf("Pieces: %d", snap.PiecesLocked),
		fmt.Sprintf("Ticks:  %d", snap.Ticks),
		"",
		"Piece:  " + snap.Kind,
		"Intent: " + snap.Intent,
	}
	if snap.Landed && !snap.GameOver {
		lines = append(lines, "LANDED - press Space")
	}
	if !session.running {
		lines = append(lines, "", "PAUSED")
	}
	if snap.GameOver {
		lines = append(lines, "", "GAME OVER - press R")
	}
	for _, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, x, y)
		y += 16
	}

	// Pulse the current piece's swatch while it is landed.
	swatch := kindColors[snap.Kind]
	if snap.Landed {
		pulse := 0.6 + 0.4*math.Sin(float64(time.Now().UnixMilli())/120)
		swatch.R = uint8(float64(swatch.R) * pulse)
		swatch.G = uint8(float64(swatch.G) * pulse)
		swatch.B = uint8(float64(swatch.B) * pulse)
	}
	vector.DrawFilledRect(screen, float32(x), float32(y+10), 40, 40, swatch, false)
}

// drawSessionStats draws one line per session in the header.
func (g *Game) drawSessionStats(screen *ebiten.Image) {
	for idx, session := range g.sessions {
		y := 5 + idx*15
		if y > headerHeight-15 {
			break
		}

		marker := "   "
		if idx == g.activeSession {
			marker = ">>>"
		}
		conn := "POLL"
		if session.wsConn != nil {
			conn = "WS"
		}

		info := fmt.Sprintf("%s [%d] %s [%s]", marker, idx+1, session.sessionID, conn)
		if session.state != nil {
			info += fmt.Sprintf(" SC:%d LN:%d", session.state.Score, session.state.LinesCleared)
			if session.state.GameOver {
				info += " GAME OVER"
			}
		}
		ebitenutil.DebugPrintAt(screen, info, 10, y)
	}
}

// Layout returns the game screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// drawnCell is one on-board cell with what occupies it.
type drawnCell struct {
	Cell
	kind cellKind
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellPile
	cellActive
)

// boardCells lists every on-board cell of the snapshot, row by row. Active
// cells win over pile cells and off-board cells are dropped.
func boardCells(snap *Snapshot) []drawnCell {
	width, height := snap.Width, snap.Height
	if width <= 0 || height <= 0 {
		width, height = 14, 16
	}

	grid := make([]cellKind, width*height)
	mark := func(cells []Cell, kind cellKind) {
		for _, c := range cells {
			if c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height {
				grid[c.Y*width+c.X] = kind
			}
		}
	}
	mark(snap.Pile, cellPile)
	mark(snap.Active, cellActive)

	out := make([]drawnCell, 0, len(grid))
	for i, kind := range grid {
		out = append(out, drawnCell{Cell: Cell{X: i % width, Y: i / width}, kind: kind})
	}
	return out
}

func cellColor(kind cellKind, pieceKind string, flashing bool) color.Color {
	switch kind {
	case cellActive:
		if c, ok := kindColors[pieceKind]; ok {
			return c
		}
		return flashColor
	case cellPile:
		if flashing {
			return flashColor
		}
		return pileColor
	default:
		return emptyColor
	}
}

func main() {
	server := flag.String("server", "http://localhost:8080", "Blockfall server URL")
	flag.Parse()

	game := NewGame(newAPIClient(*server), flag.Args())

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Blockfall - Desktop Client")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
