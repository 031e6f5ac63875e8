//go:build !no_script

package script

import (
	"time"

	lua "github.com/yuin/gopher-lua"
)

// registerLightModule registers the `light` global table in a Lua state.
// Handlers run with l.mu held, so module functions read l.state directly.
func registerLightModule(L *lua.LState, l *Light) {
	mod := L.NewTable()

	mod.RawSetString("log", L.NewFunction(func(L *lua.LState) int {
		return lightLog(L, l)
	}))

	mod.RawSetString("state", L.NewFunction(func(L *lua.LState) int {
		t := L.NewTable()
		t.RawSetString("on", lua.LBool(l.state.On))
		t.RawSetString("brightness", lua.LNumber(l.state.Brightness))
		t.RawSetString("hue", lua.LNumber(l.state.Hue))
		t.RawSetString("saturation", lua.LNumber(l.state.Saturation))
		L.Push(t)
		return 1
	}))

	mod.RawSetString("rgb", L.NewFunction(func(L *lua.LState) int {
		r, g, b := l.state.RGB()
		L.Push(lua.LNumber(r))
		L.Push(lua.LNumber(g))
		L.Push(lua.LNumber(b))
		return 3
	}))

	mod.RawSetString("datetime", L.NewFunction(lightDatetime))
	mod.RawSetString("time_between", L.NewFunction(lightTimeBetween))

	L.SetGlobal("light", mod)
}

// light.log(msg) or light.log(level, msg)
func lightLog(L *lua.LState, l *Light) int {
	level, msg := "info", L.CheckString(1)
	if L.GetTop() >= 2 {
		level, msg = msg, L.CheckString(2)
	}

	switch level {
	case "debug":
		l.logger.Debug("script log", "msg", msg)
	case "warn":
		l.logger.Warn("script log", "msg", msg)
	case "error":
		l.logger.Error("script log", "msg", msg)
	default:
		l.logger.Info("script log", "msg", msg)
	}
	return 0
}

// light.datetime(component) returns a date/time component.
func lightDatetime(L *lua.LState) int {
	component := L.CheckString(1)
	now := time.Now()

	switch component {
	case "hour":
		L.Push(lua.LNumber(now.Hour()))
	case "minute":
		L.Push(lua.LNumber(now.Minute()))
	case "weekday":
		L.Push(lua.LNumber(now.Weekday()))
	case "timestamp":
		L.Push(lua.LNumber(now.Unix()))
	case "time_str":
		L.Push(lua.LString(now.Format("15:04:05")))
	default:
		L.ArgError(1, "unknown component: "+component)
		return 0
	}
	return 1
}

// light.time_between(from_hour, to_hour) checks whether the current hour is
// in [from, to), wrapping past midnight when from > to.
func lightTimeBetween(L *lua.LState) int {
	from := L.CheckInt(1)
	to := L.CheckInt(2)
	L.Push(lua.LBool(hourBetween(time.Now().Hour(), from, to)))
	return 1
}

func hourBetween(hour, from, to int) bool {
	if from <= to {
		return hour >= from && hour < to
	}
	return hour >= from || hour < to
}
