package AOF

// AOFPersister - адаптер AOF для интерфейса storage.Persistence.
type AOFPersister struct {
	aof *AOF
}

// NewPersister создаёт адаптер для AOF.
func NewPersister(dir string) (*AOFPersister, error) {
	a, err := NewAOF(dir)
	if err != nil {
		return nil, err
	}
	return &AOFPersister{aof: a}, nil
}

// Write записывает вставку через AOF.
func (p *AOFPersister) Write(cmd, key, value string) error {
	return p.aof.Write(WriteInput{
		Cmd:   cmd,
		Key:   key,
		Value: value,
	})
}

// Read делегирует чтение AOF с CRC64 проверкой и truncate recovery.
func (p *AOFPersister) Read(rf func(cmd, key, value string)) (*ReadResult, error) {
	return p.aof.Read(rf)
}

// Checkpoint обрезает журнал после успешного save.
func (p *AOFPersister) Checkpoint(save func() error) error {
	return p.aof.Checkpoint(save)
}

// Sync дожидается записи очереди на диск.
func (p *AOFPersister) Sync() error {
	return p.aof.Sync()
}

// Close закрывает AOF.
func (p *AOFPersister) Close() error {
	return p.aof.Close()
}

// Path возвращает путь к файлу журнала.
func (p *AOFPersister) Path() string {
	return p.aof.Path()
}
