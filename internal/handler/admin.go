package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pavelc4/aether-dl-bot/internal/stats"
	"github.com/pavelc4/aether-dl-bot/internal/utils"
)

type AdminHandler struct {
	msg     Messenger
	stats   *stats.Stats
	ownerID int64
	workDir string
}

func NewAdminHandler(m Messenger, st *stats.Stats, ownerID int64, workDir string) *AdminHandler {
	return &AdminHandler{msg: m, stats: st, ownerID: ownerID, workDir: workDir}
}

// HandleStats answers the owner only; everyone else is ignored.
func (h *AdminHandler) HandleStats(ctx context.Context, req Request) error {
	if h.ownerID == 0 || req.UserID != h.ownerID {
		return nil
	}

	sysInfo := h.stats.SystemInfo(ctx, h.workDir)
	text := formatStats(h.stats.Snapshot(), sysInfo)

	_, err := h.msg.SendText(ctx, req.Peer, req.MessageID, text)
	return err
}

func formatStats(snap stats.Snapshot, sysInfo *stats.SystemInfo) string {
	var providers strings.Builder
	if len(snap.Providers) == 0 {
		providers.WriteString("└ none yet\n")
	}
	for i, p := range snap.Providers {
		branch := "├"
		if i == len(snap.Providers)-1 {
			branch = "└"
		}
		fmt.Fprintf(&providers, "%s %s : <code>%d</code>\n", branch, p.Name, p.Count)
	}

	return fmt.Sprintf(
		"<b>Bot Status</b>\n\n"+
			"<b>Requests</b>\n"+
			"├ Total : <code>%d</code> (today <code>%d</code>)\n"+
			"├ Delivered : <code>%d</code>\n"+
			"├ Too big : <code>%d</code>\n"+
			"├ Not found : <code>%d</code>\n"+
			"├ Failed : <code>%d</code>\n"+
			"├ Users : <code>%d</code> (today <code>%d</code>)\n"+
			"└ Sent : <code>%s</code>\n\n"+
			"<b>Delivered by</b>\n"+
			"%s\n"+
			"<b>System</b>\n"+
			"├ OS : <code>%s</code>\n"+
			"├ Host : <code>%s</code>\n"+
			"├ Uptime : <code>%s</code>\n"+
			"├ CPU : <code>%d cores, %.2f%%</code>\n"+
			"├ Load : <code>%.2f %.2f %.2f</code>\n"+
			"├ Mem : <code>%s / %s (%.1f%%)</code>\n"+
			"├ Work disk : <code>%s free of %s</code>\n"+
			"└ Net : <code>↑%s ↓%s</code>\n\n"+
			"<b>Process</b>\n"+
			"├ Uptime : <code>%s</code>\n"+
			"├ PID : <code>%d</code>\n"+
			"├ CPU : <code>%.2f%%</code>\n"+
			"├ RSS : <code>%s</code>\n"+
			"├ Heap : <code>%s</code>\n"+
			"├ Routines : <code>%d</code>\n"+
			"├ GC Runs : <code>%d</code>\n"+
			"└ Go : <code>%s</code>",
		snap.Requests, snap.Today.Requests,
		snap.Delivered,
		snap.Oversized,
		snap.NotFound,
		snap.Failed,
		snap.UniqueUsers, snap.Today.Users,
		utils.FormatBytes(uint64(snap.BytesSent)),
		providers.String(),
		sysInfo.OS,
		sysInfo.Hostname,
		utils.FormatDuration(sysInfo.SystemUptime),
		sysInfo.CPUCores, sysInfo.CPUUsage,
		sysInfo.Load1, sysInfo.Load5, sysInfo.Load15,
		utils.FormatBytes(sysInfo.MemUsed), utils.FormatBytes(sysInfo.MemTotal), sysInfo.MemPercent,
		utils.FormatBytes(sysInfo.DiskFree), utils.FormatBytes(sysInfo.DiskTotal),
		utils.FormatBytes(sysInfo.NetSent), utils.FormatBytes(sysInfo.NetRecv),
		utils.FormatDuration(sysInfo.ProcessUptime.Round(time.Second)),
		sysInfo.ProcessPID,
		sysInfo.ProcessCPU,
		utils.FormatBytes(sysInfo.ProcessMem),
		utils.FormatBytes(sysInfo.HeapAlloc),
		sysInfo.Goroutines,
		sysInfo.GCRuns,
		sysInfo.GoVersion,
	)
}
