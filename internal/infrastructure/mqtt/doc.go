// Package mqtt provides MQTT client connectivity for the curtain skill.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - Publish-topic validation for device targets
//
// # Architecture
//
// The skill sits on the assistant's MQTT bus. The intent engine publishes
// classified requests; the skill answers on the request's output topic and
// publishes device commands straight to each curtain's topic.
//
//	Intent Engine → MQTT Broker → Curtain Skill → MQTT Broker → Curtains
//
// # Usage
//
//	topics := mqtt.Topics{Base: "assistant"}
//	client, err := mqtt.Connect(cfg.MQTT, topics.SkillStatus("curtain-skill"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topics.IntentResult(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(payload)
//	    })
//
//	client.Publish("zigbee2mqtt/studio/curtain/set", []byte(`{"state": "OPEN"}`), 1, false)
package mqtt
