package mqtt

import (
	"sort"
	"strings"

	"github.com/sweeney/jalousie-io/internal/action"
)

// Topics used by the daemon.
const (
	TopicCommandPrefix  = "Jalousie/cmnd/"
	TopicJalousieSensor = "Jalousie/tele/SENSOR"
	TopicWind           = "Wind/tele/SENSOR"
	TopicRain           = "Regen/tele/SENSOR"
	TopicSun            = "Sonne/tele/SENSOR"
	TopicClimate        = "Wohnzimmer/tele/SENSOR"

	// Subscriptions.
	FilterJalousie = "Jalousie/#"
	FilterWind     = "Wind/#"
)

// commandTopics maps the remote command name to the dispatcher command.
var commandTopics = map[string]action.Command{
	"down_off":   action.CommandDownOff,
	"down_on":    action.CommandDownOn,
	"up_off":     action.CommandUpOff,
	"up_on":      action.CommandUpOn,
	"all_down":   action.CommandAllDown,
	"all_up":     action.CommandAllUp,
	"full_down":  action.CommandFullDown,
	"full_up":    action.CommandFullUp,
	"individual": action.CommandIndividual,
	"off":        action.CommandOff,
	"shadow":     action.CommandShadow,
	"stop":       action.CommandStop,
	"turn":       action.CommandTurn,
}

// CommandForName maps a remote command name such as "full_up".
func CommandForName(name string) (action.Command, bool) {
	cmd, ok := commandTopics[name]
	return cmd, ok
}

// CommandForTopic maps Jalousie/cmnd/<name> to a command.
func CommandForTopic(topic string) (action.Command, bool) {
	name, ok := strings.CutPrefix(topic, TopicCommandPrefix)
	if !ok {
		return "", false
	}
	return CommandForName(name)
}

// TopicForCommand returns the command topic for cmd, or "" if none exists.
func TopicForCommand(cmd action.Command) string {
	for name, c := range commandTopics {
		if c == cmd {
			return TopicCommandPrefix + name
		}
	}
	return ""
}

// CommandNames returns the remote command names, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(commandTopics))
	for name := range commandTopics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MatchTopic reports whether topic matches filter, honoring + and # wildcards.
func MatchTopic(filter, topic string) bool {
	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")
	for i, part := range f {
		if part == "#" {
			return true
		}
		if i >= len(t) {
			return false
		}
		if part != "+" && part != t[i] {
			return false
		}
	}
	return len(f) == len(t)
}
