package shell

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"

	"github.com/domino14/anytime/hus"
	"github.com/domino14/anytime/search"
)

const shellGlobal = "anytime_shell"

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal(shellGlobal)
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// shellFunc exposes a shell command to Lua. The function takes the rest of
// the command line as one string and returns the command's output, or a
// string starting with "ERROR: ".
func shellFunc(name string, handler func(*ShellController, *shellcmd) (*Response, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		sc := getShell(L)
		cmd, err := extractFields(name + " " + L.OptString(1, ""))
		if err == nil {
			var r *Response
			r, err = handler(sc, cmd)
			if err == nil {
				if r == nil {
					r = msg("")
				}
				L.Push(lua.LString(r.message))
				return 1
			}
		}
		log.Err(err).Str("cmd", name).Msg("error-executing-script-command")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
}

type scriptDecision struct {
	Pit         int             `json:"pit"`
	Fallback    bool            `json:"fallback"`
	Agent       string          `json:"agent"`
	ElapsedMs   int64           `json:"elapsed_ms"`
	BudgetMs    int64           `json:"budget_ms"`
	Diagnostics search.Snapshot `json:"diagnostics"`
}

// Decide runs a search like the search command and returns the decision as
// a table, or nil and an error message.
func Decide(L *lua.LState) int {
	sc := getShell(L)
	fail := func(err error) int {
		log.Err(err).Msg("error-executing-decide")
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	cmd, err := extractFields("search " + L.OptString(1, ""))
	if err != nil {
		return fail(err)
	}
	agent, _, d, err := sc.decide(cmd)
	if err != nil {
		return fail(err)
	}
	data, err := json.Marshal(scriptDecision{
		Pit:         d.Move.(hus.Move).Pit,
		Fallback:    d.Fallback,
		Agent:       agent.String(),
		ElapsedMs:   d.Elapsed.Milliseconds(),
		BudgetMs:    d.Budget.Milliseconds(),
		Diagnostics: d.Diagnostics,
	})
	if err != nil {
		return fail(err)
	}
	tbl, err := luajson.Decode(L, data)
	if err != nil {
		return fail(err)
	}
	L.Push(tbl)
	return 1
}

// autoplayAndWait runs autoplay to completion so a script sees its summary.
func autoplayAndWait(sc *ShellController, cmd *shellcmd) (*Response, error) {
	r, err := sc.autoplay(cmd)
	if err != nil {
		return nil, err
	}
	sc.autoplayMu.Lock()
	done := sc.autoplayDone
	sc.autoplayMu.Unlock()
	if done != nil {
		<-done
	}
	return r, nil
}

// script runs a Lua file with the shell commands available as anytime_*
// functions and the json module preloaded. A string returned by the script
// becomes the command's output.
func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}
	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	luajson.Preload(L)

	lsc := L.NewUserData()
	lsc.Value = sc
	L.SetGlobal(shellGlobal, lsc)
	L.SetGlobal("anytime_new", L.NewFunction(shellFunc("new", (*ShellController).newGame)))
	L.SetGlobal("anytime_show", L.NewFunction(shellFunc("show", (*ShellController).show)))
	L.SetGlobal("anytime_play", L.NewFunction(shellFunc("play", (*ShellController).play)))
	L.SetGlobal("anytime_undo", L.NewFunction(shellFunc("undo", (*ShellController).undo)))
	L.SetGlobal("anytime_search", L.NewFunction(shellFunc("search", (*ShellController).search)))
	L.SetGlobal("anytime_eval", L.NewFunction(shellFunc("eval", (*ShellController).eval)))
	L.SetGlobal("anytime_set", L.NewFunction(shellFunc("set", (*ShellController).set)))
	L.SetGlobal("anytime_analyze", L.NewFunction(shellFunc("analyze", (*ShellController).analyze)))
	L.SetGlobal("anytime_autoplay", L.NewFunction(shellFunc("autoplay", autoplayAndWait)))
	L.SetGlobal("anytime_decide", L.NewFunction(Decide))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Str("file", filepath).Msg("script-error")
		return nil, err
	}
	if ret, ok := L.Get(-1).(lua.LString); ok && L.GetTop() > 0 {
		return msg(string(ret)), nil
	}
	return nil, nil
}
