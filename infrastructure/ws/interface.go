package ws

type IHub interface {
	Run()
	RegisterClient(client *UserClient)
	UnregisterClient(client *UserClient)
	SendToClient(userID string, message []byte)
	ClientCount() int
	SetOnClientUnregister(callback func(client *UserClient) error)
}
