package runner

// SendRaw queues msg on the call pipe as it is, bypassing Invoke
func (gr *GameRunner) SendRaw(msg interface{}) error {
	return gr.proc.calls.Send(msg)
}
