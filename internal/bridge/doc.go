// Package bridge mirrors a cube session onto an MQTT broker.
//
// Every device gets a retained JSON state document under
// "<prefix>/<rf>/state", republished whenever the cube reports a change.
// Commands flow the other way:
//
//	<prefix>/<rf>/set       target temperature, e.g. "21.5"
//	<prefix>/<rf>/mode/set  mode name: "auto", "manual", "boost"
//
// The bridge itself announces its availability on "<prefix>/bridge/state"
// ("online"/"offline", retained, with a broker-side last will for unclean
// exits).
//
// # Usage Example
//
//	c, err := cube.Dial(ctx, host, cube.DefaultPort)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b := bridge.New(c, bridge.Options{BrokerURL: "tcp://broker:1883"})
//	if err := b.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//
// The default topic prefix is "maxcube".
package bridge
